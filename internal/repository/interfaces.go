package repository

import (
	"context"
	"errors"

	"cardvault-rest-api/internal/model"
)

// ErrCardNotFound is returned when a card id does not exist in the catalog.
var ErrCardNotFound = errors.New("card not found")

// CardRepository defines catalog data access methods.
type CardRepository interface {
	// UpsertCards inserts or updates cards, merging by id (last write wins).
	UpsertCards(ctx context.Context, cards []model.Card) error

	// ListCards returns cards matching the filter, ordered by name ascending.
	ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error)

	// GetCard retrieves a single card by id. Returns ErrCardNotFound if missing.
	GetCard(ctx context.Context, id string) (*model.Card, error)

	// SetOwned marks a card as owned or not. Idempotent.
	// Returns ErrCardNotFound if the id is unknown.
	SetOwned(ctx context.Context, id string, owned bool) error

	// CountCards returns the catalog size.
	CountCards(ctx context.Context) (int64, error)

	// GetStats returns diagnostics about the catalog database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}
