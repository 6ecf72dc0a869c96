package storage

import (
	"context"
	"fmt"
	"time"
)

// Sync directions and statuses recorded in sync_logs.
const (
	SyncPush = "push"
	SyncPull = "pull"

	SyncStatusOK    = "ok"
	SyncStatusEmpty = "empty"
	SyncStatusError = "error"
)

// SyncLog is one snapshot read or write by a device.
type SyncLog struct {
	ID           int64     `json:"id"`
	DeviceID     string    `json:"device_id"`
	CreatedAt    time.Time `json:"created_at"`
	Direction    string    `json:"direction"`
	Status       string    `json:"status"`
	Bytes        int       `json:"bytes"`
	ErrorMessage *string   `json:"error_message"`
}

// InsertSyncLog records a sync operation and returns its ID.
func (db *DB) InsertSyncLog(ctx context.Context, log SyncLog) (int64, error) {
	var id int64
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO sync_logs (device_id, direction, status, bytes, error_message)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		log.DeviceID, log.Direction, log.Status, log.Bytes, log.ErrorMessage,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sync log: %w", err)
	}
	return id, nil
}

// GetSyncLogs returns the most recent sync operations for a device.
func (db *DB) GetSyncLogs(ctx context.Context, deviceID string, limit int) ([]SyncLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, device_id, created_at, direction, status, bytes, error_message
		 FROM sync_logs WHERE device_id = $1
		 ORDER BY created_at DESC LIMIT $2`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync logs: %w", err)
	}
	defer rows.Close()

	result := []SyncLog{}
	for rows.Next() {
		var l SyncLog
		if err := rows.Scan(&l.ID, &l.DeviceID, &l.CreatedAt, &l.Direction, &l.Status, &l.Bytes, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// DeleteOldSyncLogs removes entries older than the cutoff.
func (db *DB) DeleteOldSyncLogs(ctx context.Context, before time.Time) (int64, error) {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM sync_logs WHERE created_at < $1`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting old sync logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
