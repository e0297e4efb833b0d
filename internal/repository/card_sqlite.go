package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	"cardvault-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteCardRepository implements CardRepository using SQLite.
// Thread-safe with WAL mode for concurrent reads.
type SQLiteCardRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteCardRepository creates a new SQLite card repository.
// dbPath is the path to the SQLite database file (e.g., "./data/catalog.db")
func NewSQLiteCardRepository(dbPath string) (*SQLiteCardRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createCardTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteCardRepository] Initialized with database: %s", dbPath)
	return &SQLiteCardRepository{db: db}, nil
}

func createCardTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS cards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		rarity TEXT NOT NULL,
		hp TEXT DEFAULT '',
		set_name TEXT DEFAULT '',
		set_id TEXT DEFAULT '',
		number TEXT DEFAULT '',
		artist TEXT DEFAULT '',
		image_file TEXT DEFAULT '',
		image_path TEXT DEFAULT '',
		owned INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cards_name ON cards(name);
	CREATE INDEX IF NOT EXISTS idx_cards_rarity ON cards(rarity);
	CREATE INDEX IF NOT EXISTS idx_cards_type ON cards(type);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertCards inserts or updates cards in a single transaction, merging by id.
func (r *SQLiteCardRepository) UpsertCards(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'), datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			rarity = excluded.rarity,
			hp = excluded.hp,
			set_name = excluded.set_name,
			set_id = excluded.set_id,
			number = excluded.number,
			artist = excluded.artist,
			image_file = excluded.image_file,
			image_path = excluded.image_path,
			updated_at = datetime('now')`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cards {
		_, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Type, c.Rarity, c.HP,
			c.SetName, c.SetID, c.Number, c.Artist, c.ImageFile, c.ImagePath, boolToInt(c.Owned))
		if err != nil {
			return fmt.Errorf("failed to upsert card %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListCards returns cards matching the filter, ordered by name.
func (r *SQLiteCardRepository) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned, created_at, updated_at FROM cards`

	var conds []string
	var args []interface{}
	if filter.NameQuery != "" {
		conds = append(conds, "name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+filter.NameQuery+"%")
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Rarity != "" {
		conds = append(conds, "rarity = ?")
		args = append(args, filter.Rarity)
	}
	if filter.SetID != "" {
		conds = append(conds, "set_id = ?")
		args = append(args, filter.SetID)
	}
	if filter.Owned != nil {
		conds = append(conds, "owned = ?")
		args = append(args, boolToInt(*filter.Owned))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name COLLATE NOCASE ASC"
	// SQLite needs a LIMIT clause to carry an OFFSET; -1 means unbounded.
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := filter.Limit
		if limit <= 0 {
			limit = -1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		var owned int
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Rarity, &c.HP, &c.SetName, &c.SetID,
			&c.Number, &c.Artist, &c.ImageFile, &c.ImagePath, &owned, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		c.Owned = owned != 0
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetCard retrieves a single card by id.
func (r *SQLiteCardRepository) GetCard(ctx context.Context, id string) (*model.Card, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned, created_at, updated_at FROM cards WHERE id = ?`

	var c model.Card
	var owned int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Type, &c.Rarity, &c.HP,
		&c.SetName, &c.SetID, &c.Number, &c.Artist, &c.ImageFile, &c.ImagePath, &owned, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	c.Owned = owned != 0
	return &c, nil
}

// SetOwned marks a card as owned or not.
func (r *SQLiteCardRepository) SetOwned(ctx context.Context, id string, owned bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx,
		`UPDATE cards SET owned = ?, updated_at = datetime('now') WHERE id = ?`, boolToInt(owned), id)
	if err != nil {
		return fmt.Errorf("failed to set ownership: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCardNotFound
	}
	return nil
}

// CountCards returns the catalog size.
func (r *SQLiteCardRepository) CountCards(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetStats returns statistics about the catalog database.
func (r *SQLiteCardRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_cards"] = count

	var lastUpdate sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM cards").Scan(&lastUpdate); err == nil && lastUpdate.Valid {
		stats["last_update"] = lastUpdate.Time
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteCardRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Ensure SQLiteCardRepository implements CardRepository
var _ CardRepository = (*SQLiteCardRepository)(nil)
