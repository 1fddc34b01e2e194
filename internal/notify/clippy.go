package notify

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Clippy is a client stub against org.playtimed.Clippy, exactly as the
// original documents it ("Future: Animated Clippy notification widget").
// IsAvailable returns false until such a service is ever registered on the
// bus, so the chain degrades to Freedesktop in every realistic deployment
// today.
type Clippy struct{}

func NewClippy() *Clippy { return &Clippy{} }

var _ domain.NotificationBackend = (*Clippy)(nil)

const clippyDest = "org.playtimed.Clippy"

func (c *Clippy) Name() string { return "clippy" }

func (c *Clippy) IsAvailable(user domain.User) bool {
	conn, err := dbus.Dial("unix:path=" + sessionBusPath(user.UID))
	if err != nil {
		return false
	}
	defer conn.Close()
	if err := conn.Auth(nil); err != nil {
		return false
	}
	var names []string
	if err := conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return false
	}
	for _, n := range names {
		if n == clippyDest {
			return true
		}
	}
	return false
}

func (c *Clippy) Send(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string, replacesID int) (int, error) {
	return 0, domain.Wrap(domain.ErrNotificationUnavailable, "Clippy.Send", nil)
}

func (c *Clippy) Close(ctx context.Context, user domain.User, notificationID int) bool { return false }
