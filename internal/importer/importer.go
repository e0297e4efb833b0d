// Package importer parses uploaded CSV batches into card records.
//
// Legacy spreadsheets come in several shapes: English or Portuguese
// headers, comma or semicolon separated, UTF-8 or Latin-1 encoded.
// The importer normalizes all of them into model.Card values and
// reports malformed rows without aborting the batch.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"cardvault-rest-api/internal/model"

	"golang.org/x/text/encoding/charmap"
)

// utf8BOM is stripped from exports produced by spreadsheet tools.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// columnAliases maps normalized header names to canonical columns.
// Portuguese names match the legacy collection spreadsheets.
var columnAliases = map[string]string{
	"id":          "id",
	"name":        "name",
	"nome":        "name",
	"type":        "type",
	"types":       "type",
	"tipo":        "type",
	"rarity":      "rarity",
	"raridade":    "rarity",
	"hp":          "hp",
	"set":         "set_name",
	"set_name":    "set_name",
	"conjunto":    "set_name",
	"set_id":      "set_id",
	"setid":       "set_id",
	"number":      "number",
	"numero":      "number",
	"card_number": "number",
	"artist":      "artist",
	"artista":     "artist",
	"image":       "image",
	"imagem":      "image",
	"image_file":  "image",
}

// requiredColumns must be present and non-empty on every valid row.
var requiredColumns = []string{"name", "type", "rarity"}

// ParseResult holds the outcome of parsing one CSV batch.
type ParseResult struct {
	Cards     []model.Card
	Errors    []model.RowError
	Processed int
}

// Parse reads CSV data and returns the valid card records plus
// row-level errors. A batch never fails on malformed rows; only an
// unreadable payload or a missing header returns an error.
func Parse(r io.Reader) (*ParseResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}

	text, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty CSV file")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := mapHeader(header)
	if !hasRequiredColumns(columns) {
		return nil, fmt.Errorf("missing required columns (need name, type and rarity), got: %s",
			strings.Join(header, ", "))
	}

	result := &ParseResult{}
	seen := make(map[string]int) // id -> first row, dedup within batch

	for rowNum := 1; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Processed++
				result.Errors = append(result.Errors, model.RowError{
					Row:    rowNum,
					Reason: fmt.Sprintf("malformed row: %v", parseErr.Err),
				})
				continue
			}
			return nil, fmt.Errorf("failed to read CSV row %d: %w", rowNum, err)
		}

		result.Processed++
		card, rowErr := buildCard(columns, record)
		if rowErr != "" {
			result.Errors = append(result.Errors, model.RowError{Row: rowNum, Reason: rowErr})
			continue
		}

		if firstRow, dup := seen[card.ID]; dup {
			// Last write wins within a batch, same as across batches.
			result.Cards[firstRow] = card
			continue
		}
		seen[card.ID] = len(result.Cards)
		result.Cards = append(result.Cards, card)
	}

	return result, nil
}

// decode strips the UTF-8 BOM and falls back to Latin-1 for payloads
// that are not valid UTF-8.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode CSV data: %w", err)
	}
	return string(decoded), nil
}

// sniffDelimiter inspects the header line and picks semicolon when it
// outnumbers commas (common in pt-BR spreadsheet exports).
func sniffDelimiter(text string) rune {
	line := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		line = text[:idx]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// mapHeader resolves raw header names to canonical column indexes.
// Unknown columns are ignored.
func mapHeader(header []string) map[string]int {
	columns := make(map[string]int)
	for i, h := range header {
		normalized := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[normalized]; ok {
			if _, taken := columns[canonical]; !taken {
				columns[canonical] = i
			}
		}
	}
	return columns
}

func hasRequiredColumns(columns map[string]int) bool {
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return false
		}
	}
	return true
}

// buildCard validates one row and assembles a card record.
// Returns a non-empty reason when the row is rejected.
func buildCard(columns map[string]int, record []string) (model.Card, string) {
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var missing []string
	for _, col := range requiredColumns {
		if field(col) == "" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return model.Card{}, "missing required field(s): " + strings.Join(missing, ", ")
	}

	card := model.Card{
		Name:      field("name"),
		Type:      primaryType(field("type")),
		Rarity:    field("rarity"),
		HP:        field("hp"),
		SetName:   field("set_name"),
		SetID:     field("set_id"),
		Number:    field("number"),
		Artist:    field("artist"),
		ImageFile: field("image"),
	}
	card.ID = deriveID(field("id"), card)
	return card, ""
}

// primaryType takes the first entry of a pipe-separated type list.
func primaryType(value string) string {
	if idx := strings.IndexByte(value, '|'); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

// deriveID produces the stable deduplication key for a card:
// explicit id column, then set id + number, then a slug of name + set.
func deriveID(explicit string, card model.Card) string {
	if explicit != "" {
		return slugify(explicit)
	}
	if card.SetID != "" && card.Number != "" {
		return slugify(card.SetID + "-" + card.Number)
	}
	return slugify(card.Name + "-" + card.SetName)
}

// slugify lowercases and collapses non-alphanumeric runs to hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
