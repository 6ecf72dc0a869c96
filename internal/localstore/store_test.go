package localstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meltforce/flexlog/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { s.Close() })
	return s
}

// TestLoadDefaults verifies that an empty store yields default state.
func TestLoadDefaults(t *testing.T) {
	s := openTestStore(t)
	state, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if state.Units != models.UnitsLb || state.SelectedDate != "2024-07-04" || !state.StrengthTrackerEnabled {
		t.Errorf("defaults = %+v", state)
	}
}

// TestSaveLoadRoundTrip verifies persisted fields survive a reopen.
func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	s, err := Open(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	state := models.DefaultStoreState(time.Now())
	state.Units = models.UnitsKg
	state.WorkoutDays = []models.WorkoutDay{{
		ID: "d1", Name: "Legs",
		Exercises: []models.WorkoutExercise{{ID: "e1", Name: "Back Squat", Reps: "5x5", TrackWeight: true,
			Logs: []models.WorkoutExerciseLog{{Date: "2024-07-01", Weight: 120}}}},
	}}
	if err := s.Save(ctx, state); err != nil {
		t.Fatal(err)
	}
	s.Close()

	reopened, err := Open(dir, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Units != models.UnitsKg || len(got.WorkoutDays) != 1 || got.WorkoutDays[0].Exercises[0].Logs[0].Weight != 120 {
		t.Errorf("reloaded = %+v", got)
	}
}

// TestLoadCorrupt verifies that a corrupt record falls back to defaults.
func TestLoadCorrupt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.put(ctx, stateKey, "{broken"); err != nil {
		t.Fatal(err)
	}
	state, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state.Units != models.UnitsLb || state.WeightLogs == nil {
		t.Errorf("state = %+v", state)
	}
}

// TestUpdate verifies that Update applies mutations, fires the save hook,
// and leaves the store untouched when the mutator fails.
func TestUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var saved []models.StoreState
	s.OnSave(func(st models.StoreState) { saved = append(saved, st) })

	if _, err := s.Update(ctx, func(st *models.StoreState) error {
		return st.SetWeightLog("2024-07-01", 181.5)
	}); err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].WeightLogs["2024-07-01"] != 181.5 {
		t.Errorf("hook saw %+v", saved)
	}

	boom := errors.New("boom")
	if _, err := s.Update(ctx, func(st *models.StoreState) error {
		st.Units = models.UnitsKg
		return boom
	}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	got, _ := s.Load(ctx)
	if got.Units != models.UnitsLb {
		t.Error("failed update was persisted")
	}
	if len(saved) != 1 {
		t.Errorf("hook fired %d times, want 1", len(saved))
	}
}

// TestDeviceIDStable verifies the device id is generated once.
func TestDeviceIDStable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	first, err := s.DeviceID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 36 {
		t.Errorf("device id %q is not a uuid", first)
	}
	second, err := s.DeviceID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("device id changed: %s -> %s", first, second)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if third, _ := s.DeviceID(ctx); third != first {
		t.Error("Clear reset the device id")
	}
}
