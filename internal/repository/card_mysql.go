package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"cardvault-rest-api/internal/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLCardRepository implements CardRepository using MySQL.
type MySQLCardRepository struct {
	db *sql.DB
}

// NewMySQLCardRepository creates a new MySQL card repository.
// dsn format: "user:password@tcp(host:port)/dbname?parseTime=true"
func NewMySQLCardRepository(dsn string) (*MySQLCardRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	if err := createCardTableMySQL(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Println("[MySQLCardRepository] Initialized")
	return &MySQLCardRepository{db: db}, nil
}

func createCardTableMySQL(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS cards (
		id VARCHAR(191) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(64) NOT NULL,
		rarity VARCHAR(64) NOT NULL,
		hp VARCHAR(16) NOT NULL DEFAULT '',
		set_name VARCHAR(255) NOT NULL DEFAULT '',
		set_id VARCHAR(64) NOT NULL DEFAULT '',
		number VARCHAR(32) NOT NULL DEFAULT '',
		artist VARCHAR(255) NOT NULL DEFAULT '',
		image_file VARCHAR(255) NOT NULL DEFAULT '',
		image_path VARCHAR(512) NOT NULL DEFAULT '',
		owned TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_cards_name (name),
		INDEX idx_cards_rarity (rarity),
		INDEX idx_cards_type (type)
	)`
	_, err := db.Exec(query)
	return err
}

// UpsertCards inserts or updates cards in a single transaction.
func (r *MySQLCardRepository) UpsertCards(ctx context.Context, cards []model.Card) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cards (id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			type = VALUES(type),
			rarity = VALUES(rarity),
			hp = VALUES(hp),
			set_name = VALUES(set_name),
			set_id = VALUES(set_id),
			number = VALUES(number),
			artist = VALUES(artist),
			image_file = VALUES(image_file),
			image_path = VALUES(image_path)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range cards {
		_, err := stmt.ExecContext(ctx, c.ID, c.Name, c.Type, c.Rarity, c.HP,
			c.SetName, c.SetID, c.Number, c.Artist, c.ImageFile, c.ImagePath, c.Owned)
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
func (r *MySQLCardRepository) ListCards(ctx context.Context, filter model.CardFilter) ([]model.Card, error) {
	query := "SELECT id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned, created_at, updated_at FROM cards"

	var conds []string
	var args []interface{}
	if filter.NameQuery != "" {
		conds = append(conds, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.NameQuery)+"%")
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
		args = append(args, *filter.Owned)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name ASC"
	// MySQL has no bare OFFSET; an unbounded offset needs a huge LIMIT.
	if filter.Limit > 0 || filter.Offset > 0 {
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
		} else {
			query += fmt.Sprintf(" LIMIT 18446744073709551615 OFFSET %d", filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []model.Card
	for rows.Next() {
		var c model.Card
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Rarity, &c.HP, &c.SetName, &c.SetID,
			&c.Number, &c.Artist, &c.ImageFile, &c.ImagePath, &c.Owned, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// GetCard retrieves a single card by id.
func (r *MySQLCardRepository) GetCard(ctx context.Context, id string) (*model.Card, error) {
	query := "SELECT id, name, type, rarity, hp, set_name, set_id, number, artist, image_file, image_path, owned, created_at, updated_at FROM cards WHERE id = ?"

	var c model.Card
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Type, &c.Rarity, &c.HP,
		&c.SetName, &c.SetID, &c.Number, &c.Artist, &c.ImageFile, &c.ImagePath, &c.Owned, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &c, nil
}

// SetOwned marks a card as owned or not.
func (r *MySQLCardRepository) SetOwned(ctx context.Context, id string, owned bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE cards SET owned = ? WHERE id = ?", owned, id)
	if err != nil {
		return fmt.Errorf("failed to set ownership: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// MySQL reports 0 affected rows for no-op updates too, so check existence
		// before treating this as a missing card.
		var exists int
		if err := r.db.QueryRowContext(ctx, "SELECT 1 FROM cards WHERE id = ?", id).Scan(&exists); err != nil {
			if err == sql.ErrNoRows {
				return ErrCardNotFound
			}
			return err
		}
	}
	return nil
}

// CountCards returns the catalog size.
func (r *MySQLCardRepository) CountCards(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cards").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetStats returns statistics about the catalog database.
func (r *MySQLCardRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
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

	return stats, nil
}

// Close closes the database connection.
func (r *MySQLCardRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLCardRepository implements CardRepository
var _ CardRepository = (*MySQLCardRepository)(nil)
