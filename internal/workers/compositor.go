package workers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/aaronsb/playtimed/internal/domain"
)

// KWinCompositor implements domain.CompositorClient by dialing the target
// user's session bus directly and querying KWin's WindowsRunner, replacing
// the original's `sudo -u ... qdbus6` subprocess shell-out with a native
// D-Bus call.
type KWinCompositor struct {
	timeout time.Duration
}

func NewKWinCompositor(timeout time.Duration) *KWinCompositor {
	return &KWinCompositor{timeout: timeout}
}

var _ domain.CompositorClient = (*KWinCompositor)(nil)

func sessionBusPath(uid int) string {
	return fmt.Sprintf("/run/user/%d/bus", uid)
}

func (k *KWinCompositor) ListWindows(ctx context.Context, uid int) ([]domain.WindowInfo, error) {
	path := sessionBusPath(uid)
	if _, err := os.Stat(path); err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "KWinCompositor.ListWindows", fmt.Errorf("no session bus for uid %d", uid))
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	conn, err := dbus.Dial("unix:path=" + path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "KWinCompositor.ListWindows", err)
	}
	defer conn.Close()
	if err := conn.Auth(nil); err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "KWinCompositor.ListWindows", err)
	}

	obj := conn.Object("org.kde.KWin", dbus.ObjectPath("/WindowsRunner"))
	call := obj.CallWithContext(ctx, "org.kde.krunner1.Match", 0, "")
	if call.Err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "KWinCompositor.ListWindows", call.Err)
	}

	// Match returns an array of (id, title, iconName, relevance, score, props).
	var results []struct {
		ID       string
		Title    string
		Icon     string
		Relevance float64
		Score     int
		Props     map[string]dbus.Variant
	}
	if err := call.Store(&results); err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "KWinCompositor.ListWindows", err)
	}

	out := make([]domain.WindowInfo, 0, len(results))
	for _, r := range results {
		out = append(out, domain.WindowInfo{Title: r.Title, AppID: r.ID})
	}
	return out, nil
}
