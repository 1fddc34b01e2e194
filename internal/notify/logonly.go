package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// LogOnly is the terminal backend in the chain: it always succeeds,
// writing the notification through the injected logger instead of
// fmt.Println, matching the ambient logging stack. Enforcement actions
// proceed whether or not the user actually sees this.
type LogOnly struct {
	log     *zap.Logger
	nextID  int
}

func NewLogOnly(log *zap.Logger) *LogOnly {
	return &LogOnly{log: log}
}

var _ domain.NotificationBackend = (*LogOnly)(nil)

func (l *LogOnly) Name() string                  { return "log_only" }
func (l *LogOnly) IsAvailable(domain.User) bool   { return true }

func (l *LogOnly) Send(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string, replacesID int) (int, error) {
	l.nextID++
	if l.log != nil {
		l.log.Info("notification (log-only backend)",
			zap.String("user", user.Name), zap.String("title", title), zap.String("body", body), zap.Int("urgency", int(urgency)))
	}
	return l.nextID, nil
}

func (l *LogOnly) Close(ctx context.Context, user domain.User, notificationID int) bool { return true }
