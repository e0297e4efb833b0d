package model

import "time"

// Card represents a single catalog entry for a collectible card.
// ID is the deduplication key: derived from an explicit id column,
// from set id + number, or from a slug of name + set.
type Card struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Rarity    string    `json:"rarity"`
	HP        string    `json:"hp,omitempty"`
	SetName   string    `json:"set_name,omitempty"`
	SetID     string    `json:"set_id,omitempty"`
	Number    string    `json:"number,omitempty"`
	Artist    string    `json:"artist,omitempty"`
	ImageFile string    `json:"image_file,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	Owned     bool      `json:"owned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardFilter holds the optional listing filters.
// Zero values mean "no filter"; Owned uses a pointer so that
// filtering on owned=false is still expressible.
type CardFilter struct {
	NameQuery string
	Type      string
	Rarity    string
	SetID     string
	Owned     *bool
	Limit     int
	Offset    int
}

// RowError reports a single rejected CSV row.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarizes one CSV import batch.
// A batch is transient: rows are parsed, valid records upserted,
// and the parsed data is discarded.
type ImportResult struct {
	BatchID   string     `json:"batch_id"`
	Processed int        `json:"processed"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Skipped   int        `json:"skipped"`
	Errors    []RowError `json:"errors"`
}
