package syncclient

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/flexlog/internal/models"
)

type recordingPusher struct {
	mu     sync.Mutex
	pushed []models.StoreState
}

func (p *recordingPusher) Push(_ context.Context, _ string, state models.StoreState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, state)
	return nil
}

func (p *recordingPusher) snapshot() []models.StoreState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.StoreState(nil), p.pushed...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestSchedulerCoalesces verifies that a burst of saves results in a single
// push carrying the latest state.
func TestSchedulerCoalesces(t *testing.T) {
	p := &recordingPusher{}
	s := NewScheduler(p, "dev", 20*time.Millisecond, discardLogger())

	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		s.Schedule(models.StoreState{SelectedDate: date})
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(p.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)

	got := p.snapshot()
	if len(got) != 1 {
		t.Fatalf("pushes = %d, want 1", len(got))
	}
	if got[0].SelectedDate != "2024-01-03" {
		t.Errorf("pushed %q, want latest state", got[0].SelectedDate)
	}
}

// TestSchedulerFlush verifies that Flush pushes the pending state without
// waiting for the timer, and that the timer does not push it again.
func TestSchedulerFlush(t *testing.T) {
	p := &recordingPusher{}
	s := NewScheduler(p, "dev", time.Hour, discardLogger())

	s.Schedule(models.StoreState{SelectedDate: "2024-02-01"})
	s.Flush(context.Background())

	got := p.snapshot()
	if len(got) != 1 || got[0].SelectedDate != "2024-02-01" {
		t.Fatalf("pushed = %+v", got)
	}

	// Nothing pending: Flush is a no-op.
	s.Flush(context.Background())
	if len(p.snapshot()) != 1 {
		t.Error("empty flush pushed")
	}

	// A new window can be opened after a flush.
	s.Schedule(models.StoreState{SelectedDate: "2024-02-02"})
	s.Flush(context.Background())
	if got := p.snapshot(); len(got) != 2 || got[1].SelectedDate != "2024-02-02" {
		t.Errorf("pushed = %+v", got)
	}
}

// TestSchedulerSnapshotsState verifies that changes made by the caller after
// Schedule do not reach the pushed state.
func TestSchedulerSnapshotsState(t *testing.T) {
	p := &recordingPusher{}
	s := NewScheduler(p, "dev", time.Hour, discardLogger())

	state := models.DefaultStoreState(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	state.WeightLogs["2024-03-01"] = 180
	state.WorkoutDays = append(state.WorkoutDays, models.WorkoutDay{
		ID:   "d1",
		Name: "Push",
		Exercises: []models.WorkoutExercise{{
			ID: "e1", Name: "Bench Press", TrackWeight: true,
			Logs: []models.WorkoutExerciseLog{{Date: "2024-03-01", Weight: 135}},
		}},
	})
	s.Schedule(state)

	state.WeightLogs["2024-03-01"] = 999
	state.WeightLogs["2024-03-02"] = 181
	state.WorkoutDays[0].Name = "Renamed"
	state.WorkoutDays[0].Exercises[0].Logs[0].Weight = 999
	s.Flush(context.Background())

	got := p.snapshot()
	if len(got) != 1 {
		t.Fatalf("pushes = %d, want 1", len(got))
	}
	pushed := got[0]
	if len(pushed.WeightLogs) != 1 || pushed.WeightLogs["2024-03-01"] != 180 {
		t.Errorf("weightLogs = %v, want state at schedule time", pushed.WeightLogs)
	}
	if pushed.WorkoutDays[0].Name != "Push" || pushed.WorkoutDays[0].Exercises[0].Logs[0].Weight != 135 {
		t.Errorf("workoutDays = %+v, want state at schedule time", pushed.WorkoutDays)
	}
}
