package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/flexlog/internal/models"
)

// GetSnapshot returns the stored state for deviceID, or nil when the device
// has never synced.
func (db *DB) GetSnapshot(ctx context.Context, deviceID string) (json.RawMessage, error) {
	var state []byte
	err := db.Pool.QueryRow(ctx,
		`SELECT state FROM guest_snapshots WHERE device_id = $1`,
		deviceID).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot for %s: %w", deviceID, err)
	}
	return state, nil
}

// UpsertSnapshot replaces the stored state for deviceID.
func (db *DB) UpsertSnapshot(ctx context.Context, deviceID string, state json.RawMessage) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO guest_snapshots (device_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (device_id) DO UPDATE
			SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`, deviceID, []byte(state))
	if err != nil {
		return fmt.Errorf("upserting snapshot for %s: %w", deviceID, err)
	}
	return nil
}

// LoadState decodes the stored snapshot for deviceID, or returns nil when
// the device has never synced.
func (db *DB) LoadState(ctx context.Context, deviceID string) (*models.StoreState, error) {
	raw, err := db.GetSnapshot(ctx, deviceID)
	if err != nil || raw == nil {
		return nil, err
	}
	state, err := models.DecodeStoreState(raw, time.Now())
	if err != nil {
		return nil, fmt.Errorf("snapshot for %s: %w", deviceID, err)
	}
	return &state, nil
}
