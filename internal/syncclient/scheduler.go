package syncclient

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/flexlog/internal/models"
)

// DefaultDelay is how long the scheduler waits before pushing.
const DefaultDelay = time.Second

// Pusher uploads a state snapshot. *Client satisfies it.
type Pusher interface {
	Push(ctx context.Context, deviceID string, state models.StoreState) error
}

// Scheduler coalesces snapshot pushes. The first Schedule call arms a timer;
// calls made before it fires only replace the pending state, so at most one
// push happens per delay window and it carries the latest state.
type Scheduler struct {
	pusher   Pusher
	deviceID string
	delay    time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	pending *models.StoreState
	timer   *time.Timer
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. A zero delay means DefaultDelay.
func NewScheduler(p Pusher, deviceID string, delay time.Duration, logger *slog.Logger) *Scheduler {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Scheduler{pusher: p, deviceID: deviceID, delay: delay, logger: logger}
}

// Schedule queues a copy of state for the next push, so later changes by the
// caller do not leak into the pushed snapshot.
func (s *Scheduler) Schedule(state models.StoreState) {
	snapshot := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = &snapshot
	if s.timer != nil {
		return
	}
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.fire()
	})
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	state := s.pending
	s.pending = nil
	s.mu.Unlock()

	if state == nil {
		return
	}
	s.push(context.Background(), *state)
}

func (s *Scheduler) push(ctx context.Context, state models.StoreState) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.pusher.Push(ctx, s.deviceID, state); err != nil {
		s.logger.Warn("snapshot push failed", "device_id", s.deviceID, "error", err)
		return
	}
	s.logger.Debug("snapshot pushed", "device_id", s.deviceID)
}

// Flush pushes any pending state immediately and waits for in-flight pushes.
func (s *Scheduler) Flush(ctx context.Context) {
	s.mu.Lock()
	state := s.pending
	s.pending = nil
	if s.timer != nil && s.timer.Stop() {
		s.timer = nil
		s.wg.Done()
	}
	s.mu.Unlock()

	if state != nil {
		s.push(ctx, *state)
	}
	s.wg.Wait()
}
