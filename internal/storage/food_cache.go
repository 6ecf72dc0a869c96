package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// LoadFoodCache returns the cached normalized JSON for key. value is nil when
// there is no row; expiresAt is nil when the row never expires. Expiry is
// left to the caller.
func (db *DB) LoadFoodCache(ctx context.Context, key string) ([]byte, *time.Time, error) {
	var (
		value     []byte
		expiresAt *time.Time
	)
	err := db.Pool.QueryRow(ctx,
		`SELECT normalized_json, expires_at FROM food_cache WHERE cache_key = $1`,
		key).Scan(&value, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("querying food cache %s: %w", key, err)
	}
	return value, expiresAt, nil
}

// SaveFoodCache upserts a cache row.
func (db *DB) SaveFoodCache(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO food_cache (cache_key, normalized_json, raw_json, expires_at, updated_at)
		VALUES ($1, $2, NULL, $3, NOW())
		ON CONFLICT (cache_key) DO UPDATE
			SET normalized_json = EXCLUDED.normalized_json,
			    raw_json = NULL,
			    expires_at = EXCLUDED.expires_at,
			    updated_at = EXCLUDED.updated_at
	`, key, value, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting food cache %s: %w", key, err)
	}
	return nil
}

// PurgeExpiredFoodCache deletes rows that expired before now and returns the
// number removed.
func (db *DB) PurgeExpiredFoodCache(ctx context.Context, now time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx,
		`DELETE FROM food_cache WHERE expires_at IS NOT NULL AND expires_at < $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purging food cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
