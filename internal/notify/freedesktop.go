package notify

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

const (
	notifyDest = "org.freedesktop.Notifications"
	notifyPath = "/org/freedesktop/Notifications"
)

// Freedesktop implements the freedesktop desktop-notification spec over
// each target user's session bus, replacing the original's
// `sudo -u ... qdbus6` subprocess shell-out with a native D-Bus dial.
// Connections are cached per uid and invalidated on logout (socket gone)
// or a failed send.
type Freedesktop struct {
	log   *zap.Logger
	mu    sync.Mutex
	conns map[int]*dbus.Conn
}

func NewFreedesktop(log *zap.Logger) *Freedesktop {
	return &Freedesktop{log: log, conns: map[int]*dbus.Conn{}}
}

var _ domain.NotificationBackend = (*Freedesktop)(nil)

func (f *Freedesktop) Name() string { return "freedesktop" }

func (f *Freedesktop) IsAvailable(user domain.User) bool {
	if _, err := os.Stat(sessionBusPath(user.UID)); err != nil {
		f.invalidate(user.UID)
		return false
	}
	return true
}

func sessionBusPath(uid int) string {
	return fmt.Sprintf("/run/user/%d/bus", uid)
}

func (f *Freedesktop) connFor(user domain.User) (*dbus.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conn, ok := f.conns[user.UID]; ok {
		return conn, nil
	}

	conn, err := dbus.Dial("unix:path=" + sessionBusPath(user.UID))
	if err != nil {
		return nil, err
	}
	if err := conn.Auth(nil); err != nil {
		conn.Close()
		return nil, err
	}
	f.conns[user.UID] = conn
	return conn, nil
}

func (f *Freedesktop) invalidate(uid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conn, ok := f.conns[uid]; ok {
		conn.Close()
		delete(f.conns, uid)
	}
}

func (f *Freedesktop) Send(ctx context.Context, user domain.User, title, body string, urgency domain.Urgency, icon string, replacesID int) (int, error) {
	conn, err := f.connFor(user)
	if err != nil {
		return 0, domain.Wrap(domain.ErrNotificationUnavailable, "Freedesktop.Send", err)
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(urgency)),
	}
	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.CallWithContext(ctx, notifyDest+".Notify", 0,
		"playtimed", uint32(replacesID), icon, title, body, []string{}, hints, int32(5000))
	if call.Err != nil {
		f.invalidate(user.UID)
		return 0, domain.Wrap(domain.ErrNotificationUnavailable, "Freedesktop.Send", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, domain.Wrap(domain.ErrNotificationUnavailable, "Freedesktop.Send", err)
	}
	return int(id), nil
}

func (f *Freedesktop) Close(ctx context.Context, user domain.User, notificationID int) bool {
	conn, err := f.connFor(user)
	if err != nil {
		return false
	}
	obj := conn.Object(notifyDest, dbus.ObjectPath(notifyPath))
	call := obj.CallWithContext(ctx, notifyDest+".CloseNotification", 0, uint32(notificationID))
	return call.Err == nil
}

func (f *Freedesktop) CloseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for uid, conn := range f.conns {
		conn.Close()
		delete(f.conns, uid)
	}
}
