// Package localstore persists a device's StoreState and device id in a local
// SQLite database.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/flexlog/internal/models"

	_ "modernc.org/sqlite"
)

const (
	stateKey    = "flexlog:v1"
	deviceIDKey = "flexlog:device-id"
)

// Store is a small key-value store holding the serialized StoreState.
// Update serializes read-modify-write cycles within one process.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	onSave func(models.StoreState)
}

// Open opens (or creates) the SQLite database at dir/state.db.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// OnSave registers fn to be called with every successfully saved state.
func (s *Store) OnSave(fn func(models.StoreState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = fn
}

func (s *Store) get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Load returns the stored state merged over the defaults. A missing or
// corrupt record yields the defaults.
func (s *Store) Load(ctx context.Context) (models.StoreState, error) {
	raw, ok, err := s.get(ctx, stateKey)
	if err != nil {
		return models.StoreState{}, err
	}
	if !ok {
		return models.DefaultStoreState(s.now()), nil
	}
	state, err := models.DecodeStoreState([]byte(raw), s.now())
	if err != nil {
		s.logger.Warn("stored state is corrupt, using defaults", "error", err)
	}
	return state, nil
}

// LoadState returns the local state. The store holds a single device, so
// deviceID is ignored.
func (s *Store) LoadState(ctx context.Context, _ string) (*models.StoreState, error) {
	state, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// Save replaces the stored state.
func (s *Store) Save(ctx context.Context, state models.StoreState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, state)
}

func (s *Store) saveLocked(ctx context.Context, state models.StoreState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}
	if err := s.put(ctx, stateKey, string(data)); err != nil {
		return err
	}
	if s.onSave != nil {
		s.onSave(state)
	}
	return nil
}

// Update loads the state, applies fn and saves the result. Nothing is saved
// when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(*models.StoreState) error) (models.StoreState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.Load(ctx)
	if err != nil {
		return models.StoreState{}, err
	}
	if err := fn(&state); err != nil {
		return models.StoreState{}, err
	}
	if err := s.saveLocked(ctx, state); err != nil {
		return models.StoreState{}, err
	}
	return state, nil
}

// Clear removes the stored state. The device id is kept.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, stateKey); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	return nil
}

// DeviceID returns this device's id, generating and persisting a random
// UUID on first use.
func (s *Store) DeviceID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok, err := s.get(ctx, deviceIDKey)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}
	id = uuid.NewString()
	if err := s.put(ctx, deviceIDKey, id); err != nil {
		return "", err
	}
	return id, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
