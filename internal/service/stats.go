package service

import (
	"cardvault-rest-api/internal/model"
)

// ComputeStats derives collection completeness from the current
// catalog. Pure function of the card list; percentage is 0 when the
// catalog is empty.
func ComputeStats(cards []model.Card) model.CollectionStats {
	stats := model.CollectionStats{
		ByType:   make(map[string]model.GroupStats),
		ByRarity: make(map[string]model.GroupStats),
		BySet:    make(map[string]int),
	}

	sets := make(map[string]bool)
	for _, c := range cards {
		stats.TotalCards++
		if c.Owned {
			stats.OwnedCards++
		}

		bumpGroup(stats.ByType, typeKey(c.Type), c.Owned)
		bumpGroup(stats.ByRarity, typeKey(c.Rarity), c.Owned)

		if c.SetName != "" {
			sets[c.SetName] = true
			stats.BySet[c.SetName]++
		}
	}

	stats.UniqueSets = len(sets)
	stats.Percentage = percentage(stats.OwnedCards, stats.TotalCards)
	for key, g := range stats.ByType {
		g.Percentage = percentage(g.Owned, g.Total)
		stats.ByType[key] = g
	}
	for key, g := range stats.ByRarity {
		g.Percentage = percentage(g.Owned, g.Total)
		stats.ByRarity[key] = g
	}

	return stats
}

func typeKey(value string) string {
	if value == "" {
		return "Unknown"
	}
	return value
}

func bumpGroup(groups map[string]model.GroupStats, key string, owned bool) {
	g := groups[key]
	g.Total++
	if owned {
		g.Owned++
	}
	groups[key] = g
}

// percentage returns owned/total as a percentage rounded to two
// decimals, 0 when total is 0.
func percentage(owned, total int) float64 {
	if total == 0 {
		return 0
	}
	raw := float64(owned) / float64(total) * 100
	return float64(int(raw*100+0.5)) / 100
}
