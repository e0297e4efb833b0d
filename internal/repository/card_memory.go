package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cardvault-rest-api/internal/model"
)

// MemoryCardRepository is an in-memory implementation of CardRepository.
// Used in tests and as a fallback when no database is configured.
type MemoryCardRepository struct {
	mu    sync.RWMutex
	cards map[string]model.Card
}

// NewMemoryCardRepository creates an empty in-memory card repository.
func NewMemoryCardRepository() *MemoryCardRepository {
	return &MemoryCardRepository{
		cards: make(map[string]model.Card),
	}
}

// UpsertCards merges cards by id, last write wins.
// Ownership of an existing record is preserved across re-imports.
func (r *MemoryCardRepository) UpsertCards(ctx context.Context, cards []model.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, c := range cards {
		if existing, ok := r.cards[c.ID]; ok {
			c.Owned = existing.Owned
			c.CreatedAt = existing.CreatedAt
		} else {
			c.CreatedAt = now
		}
		c.UpdatedAt = now
		r.cards[c.ID] = c
	}
	return nil
}

// ListCards returns cards matching the filter, ordered by name.
func (r *MemoryCardRepository) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cards []model.Card
	for _, c := range r.cards {
		if filter.NameQuery != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.NameQuery)) {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.Rarity != "" && c.Rarity != filter.Rarity {
			continue
		}
		if filter.SetID != "" && c.SetID != filter.SetID {
			continue
		}
		if filter.Owned != nil && c.Owned != *filter.Owned {
			continue
		}
		cards = append(cards, c)
	}

	sort.Slice(cards, func(i, j int) bool {
		return strings.ToLower(cards[i].Name) < strings.ToLower(cards[j].Name)
	})

	if filter.Offset > 0 || filter.Limit > 0 {
		start := filter.Offset
		if start > len(cards) {
			start = len(cards)
		}
		end := len(cards)
		if filter.Limit > 0 && start+filter.Limit < end {
			end = start + filter.Limit
		}
		cards = cards[start:end]
	}
	return cards, nil
}

// GetCard retrieves a single card by id.
func (r *MemoryCardRepository) GetCard(ctx context.Context, id string) (*model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.cards[id]
	if !ok {
		return nil, ErrCardNotFound
	}
	return &c, nil
}

// SetOwned marks a card as owned or not.
func (r *MemoryCardRepository) SetOwned(ctx context.Context, id string, owned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.cards[id]
	if !ok {
		return ErrCardNotFound
	}
	c.Owned = owned
	c.UpdatedAt = time.Now()
	r.cards[id] = c
	return nil
}

// CountCards returns the catalog size.
func (r *MemoryCardRepository) CountCards(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.cards)), nil
}

// GetStats returns statistics about the in-memory catalog.
func (r *MemoryCardRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]interface{}{
		"total_cards": int64(len(r.cards)),
	}, nil
}

// Close is a no-op for the in-memory repository.
func (r *MemoryCardRepository) Close() error {
	return nil
}

// Ensure MemoryCardRepository implements CardRepository
var _ CardRepository = (*MemoryCardRepository)(nil)
