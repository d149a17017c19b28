package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteOptionRepository stores options in a local SQLite database
type SQLiteOptionRepository struct {
	db *sql.DB
}

// NewSQLiteOptionRepository opens (or creates) the database at path and runs Migrate
func NewSQLiteOptionRepository(ctx context.Context, path string) (*SQLiteOptionRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	r := &SQLiteOptionRepository{db: db}
	if err := r.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Migrate creates the options table if needed
func (r *SQLiteOptionRepository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS options (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create options table: %w", err)
	}
	return nil
}

func (r *SQLiteOptionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get option %q: %w", key, err)
	}
	return []byte(value), nil
}

func (r *SQLiteOptionRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO options (name, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to set option %q: %w", key, err)
	}
	return nil
}

func (r *SQLiteOptionRepository) Create(ctx context.Context, key string, value []byte) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO options (name, value) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to create option %q: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create option %q: %w", key, err)
	}
	if affected == 0 {
		return ErrOptionExists
	}
	return nil
}

func (r *SQLiteOptionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM options WHERE name = ?`, key); err != nil {
		return fmt.Errorf("failed to delete option %q: %w", key, err)
	}
	return nil
}

// Health pings the database
func (r *SQLiteOptionRepository) Health(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteOptionRepository) Close() error {
	return r.db.Close()
}

var (
	_ OptionRepository = (*SQLiteOptionRepository)(nil)
	_ HealthChecker    = (*SQLiteOptionRepository)(nil)
)
