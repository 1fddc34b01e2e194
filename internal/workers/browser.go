package workers

import (
	"context"
	"os/user"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// BrowserWorker resolves open browser windows for a user into
// DetectedActivity keyed by registrable domain, per the three-tier
// resolution order: title signature, history-database lookup,
// session/recovery-file merge.
type BrowserWorker struct {
	name       string
	suffix     string
	compositor domain.CompositorClient
	profile    func(homeDir string) (historyProfile, bool)
	recovery   func(homeDir string) []string
	log        *zap.Logger
}

var _ domain.DetectionWorker = (*BrowserWorker)(nil)

func NewChromeWorker(compositor domain.CompositorClient, log *zap.Logger) *BrowserWorker {
	return &BrowserWorker{
		name:       "chrome",
		suffix:     " - Google Chrome",
		compositor: compositor,
		profile: func(homeDir string) (historyProfile, bool) {
			return chromeHistoryProfile(homeDir), true
		},
		recovery: func(homeDir string) []string {
			return chromeRecoveryPaths(homeDir)
		},
		log: log,
	}
}

func NewFirefoxWorker(compositor domain.CompositorClient, profileName string, log *zap.Logger) *BrowserWorker {
	return &BrowserWorker{
		name:       "firefox",
		suffix:     " - Mozilla Firefox",
		compositor: compositor,
		profile: func(homeDir string) (historyProfile, bool) {
			if profileName == "" {
				return historyProfile{}, false
			}
			return firefoxHistoryProfile(homeDir, profileName), true
		},
		recovery: func(homeDir string) []string {
			if profileName == "" {
				return nil
			}
			return []string{firefoxRecoveryPath(homeDir, profileName)}
		},
		log: log,
	}
}

func (w *BrowserWorker) Name() string     { return w.name }
func (w *BrowserWorker) IsAvailable() bool { return w.compositor != nil }

func (w *BrowserWorker) Scan(ctx context.Context, u domain.User) ([]domain.DetectedActivity, error) {
	if w.compositor == nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "BrowserWorker.Scan", nil)
	}

	windows, err := w.compositor.ListWindows(ctx, u.UID)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var activities []domain.DetectedActivity

	sysUser, lookupErr := user.LookupId(strconv.Itoa(u.UID))

	for _, win := range windows {
		if !strings.HasSuffix(win.Title, w.suffix) {
			continue
		}
		dom, browser := extractDomainFromTitle(win.Title)
		if browser == "" {
			continue
		}
		if strings.HasPrefix(dom, "unknown:") && lookupErr == nil {
			if prof, ok := w.profile(sysUser.HomeDir); ok {
				if resolved, err := lookupDomainInHistory(ctx, prof, strings.TrimPrefix(dom, "unknown:")); err == nil && resolved != "" {
					dom = resolved
				}
			}
		}
		if dom == "" || seen[dom] {
			continue
		}
		seen[dom] = true
		activities = append(activities, domain.DetectedActivity{
			Key:    dom,
			Source: w.name,
			Metadata: map[string]string{
				"title": win.Title,
			},
		})
	}

	if lookupErr == nil {
		for _, path := range w.recovery(sysUser.HomeDir) {
			for _, dom := range sessionRecoveryDomains(path) {
				if seen[dom] {
					continue
				}
				seen[dom] = true
				activities = append(activities, domain.DetectedActivity{
					Key:    dom,
					Source: w.name,
					Metadata: map[string]string{
						"origin": "session_recovery",
					},
				})
			}
		}
	}

	return activities, nil
}

