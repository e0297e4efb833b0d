package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardvault-rest-api/internal/cache"
	"cardvault-rest-api/internal/images"
	"cardvault-rest-api/internal/model"
	"cardvault-rest-api/internal/repository"
)

const sampleCSV = "Name,Type,Rarity,set_id,number,Imagem\n" +
	"Pikachu,Electric,Common,base1,58,pikachu.png\n" +
	"Charizard,Fire,Rare,base1,4,\n" +
	"Blastoise,Water,Rare,base1,2,nope.png\n"

func newTestService(t *testing.T) (*CatalogService, *repository.MemoryCardRepository) {
	t.Helper()

	imgDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(imgDir, "pikachu.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	repo := repository.NewMemoryCardRepository()
	memCache := cache.NewMemoryCache()
	t.Cleanup(memCache.Close)

	svc := NewCatalogService(repo, memCache, images.NewResolver(imgDir), time.Minute)
	if svc == nil {
		t.Fatal("NewCatalogService returned nil")
	}
	return svc, repo
}

func TestImportCSVInvalidUpload(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("Foo,Bar\n1,2\n"))
	if !errors.Is(err, ErrInvalidCSV) {
		t.Errorf("expected ErrInvalidCSV for missing columns, got %v", err)
	}
}

func TestImportCSVPartialSuccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	csv := sampleCSV + ",Grass,Common,base1,99,\n" // malformed: no name
	result, err := svc.ImportCSV(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if result.Created != 3 {
		t.Errorf("expected 3 created, got %d", result.Created)
	}
	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected 1 row error, got %d", len(result.Errors))
	}
	if result.BatchID == "" {
		t.Error("expected a batch id")
	}
}

func TestImportCSVIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	count1, _ := repo.CountCards(ctx)

	result, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}
	count2, _ := repo.CountCards(ctx)

	if count1 != count2 {
		t.Errorf("catalog size changed on re-import: %d -> %d", count1, count2)
	}
	if result.Created != 0 {
		t.Errorf("expected 0 created on re-import, got %d", result.Created)
	}
	if result.Updated != 3 {
		t.Errorf("expected 3 updated on re-import, got %d", result.Updated)
	}
}

func TestImportCSVImageResolution(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	pikachu, err := svc.GetCard(ctx, "base1-58")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if pikachu.ImagePath != "pikachu.png" {
		t.Errorf("expected resolved image path, got %q", pikachu.ImagePath)
	}

	// Unknown image file degrades to no thumbnail, not an error
	blastoise, err := svc.GetCard(ctx, "base1-2")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if blastoise.ImagePath != "" {
		t.Errorf("expected empty image path for missing file, got %q", blastoise.ImagePath)
	}
}

func TestSetOwnedToggle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if err := svc.SetOwned(ctx, "base1-58", true); err != nil {
		t.Fatalf("SetOwned failed: %v", err)
	}
	card, _ := svc.GetCard(ctx, "base1-58")
	if !card.Owned {
		t.Error("expected card to be owned")
	}

	// Toggling twice returns the card to its original state
	if err := svc.SetOwned(ctx, "base1-58", false); err != nil {
		t.Fatalf("SetOwned failed: %v", err)
	}
	card, _ = svc.GetCard(ctx, "base1-58")
	if card.Owned {
		t.Error("expected card to be back to not owned")
	}
}

func TestSetOwnedUnknownCard(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SetOwned(context.Background(), "does-not-exist", true)
	if err != repository.ErrCardNotFound {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestOwnershipSurvivesReimport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if err := svc.SetOwned(ctx, "base1-4", true); err != nil {
		t.Fatalf("SetOwned failed: %v", err)
	}

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}

	card, err := svc.GetCard(ctx, "base1-4")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if !card.Owned {
		t.Error("expected ownership to survive re-import")
	}
}

func TestListCardsRarityFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	cards, err := svc.ListCards(ctx, model.CardFilter{Rarity: "Rare"})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("expected 2 Rare cards, got %d", len(cards))
	}
	for _, c := range cards {
		if c.Rarity != "Rare" {
			t.Errorf("unexpected rarity %q", c.Rarity)
		}
	}
	// Name order preserved
	if cards[0].Name != "Blastoise" || cards[1].Name != "Charizard" {
		t.Errorf("expected name order Blastoise, Charizard; got %s, %s", cards[0].Name, cards[1].Name)
	}
}

func TestStatsLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportCSV(ctx, strings.NewReader(sampleCSV)); err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalCards != 3 || stats.Percentage != 0 {
		t.Errorf("expected 3 cards at 0%%, got total=%d pct=%v", stats.TotalCards, stats.Percentage)
	}

	// Mutations invalidate the cached report
	for _, id := range []string{"base1-58", "base1-4", "base1-2"} {
		if err := svc.SetOwned(ctx, id, true); err != nil {
			t.Fatalf("SetOwned(%s) failed: %v", id, err)
		}
	}

	stats, err = svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Percentage != 100 {
		t.Errorf("expected 100%% after owning everything, got %v", stats.Percentage)
	}
}
