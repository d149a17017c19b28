package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresOptionRepository stores options as JSONB rows in the options table
type PostgresOptionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOptionRepository creates a repository on top of an initialized pool
func NewPostgresOptionRepository(pool *pgxpool.Pool) *PostgresOptionRepository {
	return &PostgresOptionRepository{pool: pool}
}

func (r *PostgresOptionRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value::text FROM options WHERE name = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get option %q: %w", key, err)
	}
	return []byte(value), nil
}

func (r *PostgresOptionRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO options (name, value, updated_at) VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to set option %q: %w", key, err)
	}
	return nil
}

func (r *PostgresOptionRepository) Create(ctx context.Context, key string, value []byte) error {
	result, err := r.pool.Exec(ctx,
		`INSERT INTO options (name, value) VALUES ($1, $2::jsonb) ON CONFLICT (name) DO NOTHING`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to create option %q: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return ErrOptionExists
	}
	return nil
}

func (r *PostgresOptionRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM options WHERE name = $1`, key); err != nil {
		return fmt.Errorf("failed to delete option %q: %w", key, err)
	}
	return nil
}

var _ OptionRepository = (*PostgresOptionRepository)(nil)
