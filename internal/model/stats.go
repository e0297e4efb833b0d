package model

// GroupStats holds owned/total counts for one type or rarity bucket.
type GroupStats struct {
	Total      int     `json:"total"`
	Owned      int     `json:"owned"`
	Percentage float64 `json:"percentage"`
}

// CollectionStats is the aggregate completeness report for the catalog.
type CollectionStats struct {
	TotalCards int                   `json:"total_cards"`
	OwnedCards int                   `json:"owned_cards"`
	Percentage float64               `json:"percentage"`
	ByType     map[string]GroupStats `json:"by_type"`
	ByRarity   map[string]GroupStats `json:"by_rarity"`
	UniqueSets int                   `json:"unique_sets"`
	BySet      map[string]int        `json:"by_set"`
}
