// Package notify implements the Notification Dispatcher: an
// availability-ordered backend chain (Clippy -> Freedesktop -> LogOnly)
// with per-user connection caching.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Dispatcher walks an ordered backend chain, stopping at the first backend
// whose IsAvailable is true and whose Send succeeds.
type Dispatcher struct {
	backends []domain.NotificationBackend
	log      *zap.Logger
}

func New(log *zap.Logger, backends ...domain.NotificationBackend) *Dispatcher {
	return &Dispatcher{backends: backends, log: log}
}

func (d *Dispatcher) Dispatch(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string) (string, int, error) {
	var lastErr error
	for _, b := range d.backends {
		if !b.IsAvailable(user) {
			continue
		}
		id, err := b.Send(ctx, user, title, body, urgency, icon, 0)
		if err != nil {
			lastErr = err
			if d.log != nil {
				d.log.Debug("backend send failed, trying next", zap.String("backend", b.Name()), zap.Error(err))
			}
			continue
		}
		if id == 0 {
			continue
		}
		return b.Name(), id, nil
	}
	return "", 0, domain.Wrap(domain.ErrNotificationUnavailable, "Dispatcher.Dispatch", lastErr)
}

func (d *Dispatcher) Close(ctx context.Context) {
	for _, b := range d.backends {
		if closer, ok := b.(interface{ CloseAll() }); ok {
			closer.CloseAll()
		}
	}
}
