package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"cardvault-rest-api/internal/cache"
	"cardvault-rest-api/internal/importer"
	"cardvault-rest-api/internal/images"
	"cardvault-rest-api/internal/model"
	"cardvault-rest-api/internal/repository"
	"cardvault-rest-api/pkg/uid"
)

// statsCacheKey is the cache entry for the aggregated collection stats.
const statsCacheKey = "collection:stats"

// ErrInvalidCSV marks an upload that could not be parsed at all:
// unreadable encoding, empty payload or a missing header. Row-level
// problems never trigger it; they are reported in ImportResult.Errors.
var ErrInvalidCSV = errors.New("invalid CSV upload")

// CatalogService handles card catalog business logic: CSV import,
// listing, ownership marking and aggregate stats.
type CatalogService struct {
	repo     repository.CardRepository
	cache    cache.Cache
	resolver *images.Resolver
	cacheTTL time.Duration
}

// NewCatalogService creates a new catalog service.
// Returns nil if repo is nil (required dependency). cache may be nil.
func NewCatalogService(
	repo repository.CardRepository,
	c cache.Cache,
	resolver *images.Resolver,
	cacheTTL time.Duration,
) *CatalogService {
	if repo == nil {
		return nil
	}
	if resolver == nil {
		resolver = images.NewResolver("")
	}
	return &CatalogService{
		repo:     repo,
		cache:    c,
		resolver: resolver,
		cacheTTL: cacheTTL,
	}
}

// ImportCSV parses an uploaded CSV batch, resolves card images and
// upserts the valid records. Row errors are reported in the result;
// the batch proceeds past them. The parsed batch is transient and
// discarded once records are persisted.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader) (*model.ImportResult, error) {
	parsed, err := importer.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCSV, err)
	}

	for i := range parsed.Cards {
		s.attachImage(&parsed.Cards[i])
	}

	before, err := s.repo.CountCards(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpsertCards(ctx, parsed.Cards); err != nil {
		return nil, err
	}

	after, err := s.repo.CountCards(ctx)
	if err != nil {
		return nil, err
	}

	s.invalidateStats(ctx)

	created := int(after - before)
	result := &model.ImportResult{
		BatchID:   uid.New(),
		Processed: parsed.Processed,
		Created:   created,
		Updated:   len(parsed.Cards) - created,
		Skipped:   parsed.Processed - len(parsed.Cards),
		Errors:    parsed.Errors,
	}
	log.Printf("[CatalogService] Import batch %s: %d created, %d updated, %d skipped",
		result.BatchID, result.Created, result.Updated, result.Skipped)
	return result, nil
}

// attachImage fills ImagePath from the explicit file name or, when
// that fails, from a set id + number guess. Missing images degrade to
// an empty path.
func (s *CatalogService) attachImage(card *model.Card) {
	if card.ImageFile != "" {
		if resolved := s.resolver.Resolve(card.ImageFile); resolved != "" {
			card.ImagePath = resolved
			return
		}
	}
	card.ImagePath = s.resolver.Guess(card.SetID, card.Number)
}

// ListCards returns catalog entries matching the filter, by name.
func (s *CatalogService) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error) {
	return s.repo.ListCards(ctx, filter)
}

// GetCard retrieves a single card by id.
func (s *CatalogService) GetCard(ctx context.Context, id string) (*model.Card, error) {
	return s.repo.GetCard(ctx, id)
}

// SetOwned marks a card as owned or not. Idempotent.
func (s *CatalogService) SetOwned(ctx context.Context, id string, owned bool) error {
	if err := s.repo.SetOwned(ctx, id, owned); err != nil {
		return err
	}
	s.invalidateStats(ctx)
	return nil
}

// Stats computes the aggregate collection report, served from cache
// when fresh. Cache failures degrade to a direct computation.
func (s *CatalogService) Stats(ctx context.Context) (*model.CollectionStats, error) {
	if s.cache != nil {
		data, err := s.cache.GetOrSet(ctx, statsCacheKey, s.cacheTTL, func() ([]byte, error) {
			stats, err := s.computeStats(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(stats)
		})
		if err == nil {
			var stats model.CollectionStats
			if err := json.Unmarshal(data, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	return s.computeStats(ctx)
}

func (s *CatalogService) computeStats(ctx context.Context) (*model.CollectionStats, error) {
	cards, err := s.repo.ListCards(ctx, model.CardFilter{})
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(cards)
	return &stats, nil
}

// invalidateStats drops the cached stats after a mutation.
func (s *CatalogService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		log.Printf("[CatalogService] Warning: failed to invalidate stats cache: %v", err)
	}
}
