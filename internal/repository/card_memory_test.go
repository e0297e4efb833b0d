package repository

import (
	"context"
	"testing"

	"cardvault-rest-api/internal/model"
)

func seedCards() []model.Card {
	return []model.Card{
		{ID: "base1-4", Name: "Charizard", Type: "Fire", Rarity: "Rare", SetID: "base1"},
		{ID: "base1-58", Name: "Pikachu", Type: "Electric", Rarity: "Common", SetID: "base1"},
		{ID: "jungle-60", Name: "pidgey", Type: "Colorless", Rarity: "Common", SetID: "jungle"},
	}
}

func TestMemoryUpsertMergesByID(t *testing.T) {
	repo := NewMemoryCardRepository()
	ctx := context.Background()

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	// Second upsert with same ids must not grow the catalog
	update := []model.Card{{ID: "base1-4", Name: "Charizard Holo", Type: "Fire", Rarity: "Rare", SetID: "base1"}}
	if err := repo.UpsertCards(ctx, update); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	count, err := repo.CountCards(ctx)
	if err != nil {
		t.Fatalf("CountCards failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 cards after merge, got %d", count)
	}

	card, err := repo.GetCard(ctx, "base1-4")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if card.Name != "Charizard Holo" {
		t.Errorf("expected last write to win, got %q", card.Name)
	}
}

func TestMemoryUpsertPreservesOwnership(t *testing.T) {
	repo := NewMemoryCardRepository()
	ctx := context.Background()

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}
	if err := repo.SetOwned(ctx, "base1-58", true); err != nil {
		t.Fatalf("SetOwned failed: %v", err)
	}

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	card, err := repo.GetCard(ctx, "base1-58")
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if !card.Owned {
		t.Error("expected ownership to survive upsert")
	}
}

func TestMemoryListOrderAndFilters(t *testing.T) {
	repo := NewMemoryCardRepository()
	ctx := context.Background()

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	// Case-insensitive name order
	all, err := repo.ListCards(ctx, model.CardFilter{})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	want := []string{"Charizard", "pidgey", "Pikachu"}
	if len(all) != len(want) {
		t.Fatalf("expected %d cards, got %d", len(want), len(all))
	}
	for i, name := range want {
		if all[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, all[i].Name)
		}
	}

	// Substring name filter is case-insensitive
	byName, _ := repo.ListCards(ctx, model.CardFilter{NameQuery: "PIKA"})
	if len(byName) != 1 || byName[0].ID != "base1-58" {
		t.Errorf("name filter mismatch: %+v", byName)
	}

	byRarity, _ := repo.ListCards(ctx, model.CardFilter{Rarity: "Common"})
	if len(byRarity) != 2 {
		t.Errorf("expected 2 Common cards, got %d", len(byRarity))
	}

	bySet, _ := repo.ListCards(ctx, model.CardFilter{SetID: "jungle"})
	if len(bySet) != 1 || bySet[0].ID != "jungle-60" {
		t.Errorf("set filter mismatch: %+v", bySet)
	}

	owned := true
	byOwned, _ := repo.ListCards(ctx, model.CardFilter{Owned: &owned})
	if len(byOwned) != 0 {
		t.Errorf("expected no owned cards, got %d", len(byOwned))
	}
}

func TestMemoryListPagination(t *testing.T) {
	repo := NewMemoryCardRepository()
	ctx := context.Background()

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	page, err := repo.ListCards(ctx, model.CardFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(page))
	}
	if page[0].Name != "pidgey" {
		t.Errorf("expected offset to skip Charizard, got %q", page[0].Name)
	}
}

func TestMemoryListOffsetWithoutLimit(t *testing.T) {
	repo := NewMemoryCardRepository()
	ctx := context.Background()

	if err := repo.UpsertCards(ctx, seedCards()); err != nil {
		t.Fatalf("UpsertCards failed: %v", err)
	}

	page, err := repo.ListCards(ctx, model.CardFilter{Offset: 2})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(page) != 1 || page[0].Name != "Pikachu" {
		t.Errorf("expected only Pikachu after offset 2, got %+v", page)
	}

	page, err = repo.ListCards(ctx, model.CardFilter{Offset: 10})
	if err != nil {
		t.Fatalf("ListCards failed: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("expected empty page past the end, got %+v", page)
	}
}

func TestMemorySetOwnedUnknown(t *testing.T) {
	repo := NewMemoryCardRepository()

	if err := repo.SetOwned(context.Background(), "missing", true); err != ErrCardNotFound {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}

func TestMemoryGetCardUnknown(t *testing.T) {
	repo := NewMemoryCardRepository()

	if _, err := repo.GetCard(context.Background(), "missing"); err != ErrCardNotFound {
		t.Errorf("expected ErrCardNotFound, got %v", err)
	}
}
