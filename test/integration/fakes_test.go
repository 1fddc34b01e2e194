//go:build integration

package integration

import (
	"context"
	"sync"
	"time"

	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/router"
)

// tickingClock hands out a caller-controlled sequence of instants, mirroring
// how the Daemon Loop is driven under simulated ticks in unit tests but
// exercised here against the real Store.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock(start time.Time) *tickingClock {
	return &tickingClock{now: start}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *tickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fixedActivityWorker reports the same activity keys on every scan until
// told otherwise, standing in for gopsutil-backed process detection.
type fixedActivityWorker struct {
	mu         sync.Mutex
	activities []domain.DetectedActivity
}

func (w *fixedActivityWorker) Name() string      { return "fixed" }
func (w *fixedActivityWorker) IsAvailable() bool { return true }

func (w *fixedActivityWorker) Set(acts []domain.DetectedActivity) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activities = acts
}

func (w *fixedActivityWorker) Scan(ctx context.Context, u domain.User) ([]domain.DetectedActivity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]domain.DetectedActivity, len(w.activities))
	copy(out, w.activities)
	return out, nil
}

var _ domain.DetectionWorker = (*fixedActivityWorker)(nil)

// noopProcessManager treats every PID as already gone, so the Enforcer never
// needs a real OS process tree to exercise the kill protocol's bookkeeping.
type noopProcessManager struct{}

func (noopProcessManager) ListForUID(ctx context.Context, uid int) ([]domain.ProcessHandle, error) {
	return nil, nil
}
func (noopProcessManager) IsRunning(pid int) bool      { return false }
func (noopProcessManager) TerminateGroup(pid int) error { return nil }
func (noopProcessManager) KillGroup(pid int) error      { return nil }

var _ domain.ProcessManager = noopProcessManager{}

// discardDispatcher records nothing and always reports a successful send,
// standing in for the freedesktop notification backend.
type discardDispatcher struct{}

func (discardDispatcher) Dispatch(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string) (string, int, error) {
	return "discard", 0, nil
}

var _ router.Dispatcher = discardDispatcher{}
