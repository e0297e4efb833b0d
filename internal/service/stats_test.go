package service

import (
	"testing"

	"cardvault-rest-api/internal/model"
)

func card(id, typ, rarity, set string, owned bool) model.Card {
	return model.Card{ID: id, Name: id, Type: typ, Rarity: rarity, SetName: set, Owned: owned}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)

	if stats.TotalCards != 0 || stats.OwnedCards != 0 {
		t.Errorf("expected zero counts, got total=%d owned=%d", stats.TotalCards, stats.OwnedCards)
	}
	if stats.Percentage != 0 {
		t.Errorf("expected 0%% for empty catalog, got %v", stats.Percentage)
	}
}

func TestComputeStatsNoneOwned(t *testing.T) {
	cards := []model.Card{
		card("a", "Fire", "Rare", "Base", false),
		card("b", "Water", "Common", "Base", false),
	}
	stats := ComputeStats(cards)

	if stats.Percentage != 0 {
		t.Errorf("expected 0%% with empty ownership, got %v", stats.Percentage)
	}
}

func TestComputeStatsAllOwned(t *testing.T) {
	cards := []model.Card{
		card("a", "Fire", "Rare", "Base", true),
		card("b", "Water", "Common", "Base", true),
		card("c", "Water", "Rare", "Jungle", true),
	}
	stats := ComputeStats(cards)

	if stats.Percentage != 100 {
		t.Errorf("expected 100%% when all owned, got %v", stats.Percentage)
	}
	if stats.OwnedCards != 3 || stats.TotalCards != 3 {
		t.Errorf("count mismatch: owned=%d total=%d", stats.OwnedCards, stats.TotalCards)
	}
}

func TestComputeStatsGroups(t *testing.T) {
	cards := []model.Card{
		card("a", "Fire", "Rare", "Base", true),
		card("b", "Fire", "Common", "Base", false),
		card("c", "Water", "Rare", "Jungle", false),
		card("d", "", "", "", false),
	}
	stats := ComputeStats(cards)

	fire := stats.ByType["Fire"]
	if fire.Total != 2 || fire.Owned != 1 || fire.Percentage != 50 {
		t.Errorf("Fire group mismatch: %+v", fire)
	}
	rare := stats.ByRarity["Rare"]
	if rare.Total != 2 || rare.Owned != 1 {
		t.Errorf("Rare group mismatch: %+v", rare)
	}
	if _, ok := stats.ByType["Unknown"]; !ok {
		t.Error("expected empty type bucketed as Unknown")
	}
	if stats.UniqueSets != 2 {
		t.Errorf("expected 2 unique sets, got %d", stats.UniqueSets)
	}
	if stats.BySet["Base"] != 2 {
		t.Errorf("expected 2 cards in Base, got %d", stats.BySet["Base"])
	}
}

func TestComputeStatsRounding(t *testing.T) {
	cards := []model.Card{
		card("a", "Fire", "Rare", "Base", true),
		card("b", "Fire", "Rare", "Base", false),
		card("c", "Fire", "Rare", "Base", false),
	}
	stats := ComputeStats(cards)

	if stats.Percentage != 33.33 {
		t.Errorf("expected 33.33, got %v", stats.Percentage)
	}
}
