package workers

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// excludedProcessNames are never surfaced as activity, matching the
// original's SYSTEM_PROCESSES/SHELL_PROCESSES exclusion tables.
var excludedProcessNames = map[string]bool{
	"systemd": true, "kthreadd": true, "init": true,
	"bash": true, "zsh": true, "sh": true, "fish": true,
	"sshd": true, "sudo": true, "su": true,
}

// ProcessWorker enumerates a user's processes via the injected
// ProcessManager and produces one DetectedActivity per non-excluded
// process, smoothing CPU-sample noise through the Store's seen_pids table
// so a fresh PID's first sample never contributes runtime.
type ProcessWorker struct {
	procs    domain.ProcessManager
	store    domain.Store
	ourPID   int
	log      *zap.Logger
}

func NewProcessWorker(procs domain.ProcessManager, store domain.Store, log *zap.Logger) *ProcessWorker {
	return &ProcessWorker{procs: procs, store: store, ourPID: os.Getpid(), log: log}
}

var _ domain.DetectionWorker = (*ProcessWorker)(nil)

func (w *ProcessWorker) Name() string      { return "process" }
func (w *ProcessWorker) IsAvailable() bool { return w.procs != nil }

func (w *ProcessWorker) isExcluded(h domain.ProcessHandle) bool {
	if h.PID == w.ourPID || h.PPID == w.ourPID {
		return true
	}
	return excludedProcessNames[strings.ToLower(h.Name)]
}

func (w *ProcessWorker) Scan(ctx context.Context, u domain.User) ([]domain.DetectedActivity, error) {
	handles, err := w.procs.ListForUID(ctx, u.UID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var activities []domain.DetectedActivity
	for _, h := range handles {
		if w.isExcluded(h) {
			continue
		}

		// A PID's first sighting is recorded and skipped, so it contributes
		// no activity. From the next sighting on, CPUPercent is the value
		// ListForUID reports: gopsutil's average CPU use since the process
		// started, not a difference between tick-spaced samples.
		firstSeen, err := w.store.RecordPIDSeen(ctx, h.PID, 0, now)
		if err != nil {
			if w.log != nil {
				w.log.Warn("seen-pid bookkeeping failed", zap.Int("pid", h.PID), zap.Error(err))
			}
		} else if firstSeen {
			continue
		}

		key := h.Name
		if proton, ok := protonGameKey(h); ok {
			key = proton
		}

		pid := h.PID
		cpu := h.CPUPercent
		activities = append(activities, domain.DetectedActivity{
			Key:        key,
			Source:     "process",
			PID:        &pid,
			CPUPercent: &cpu,
			Metadata: map[string]string{
				"cmdline": strings.Join(h.Cmdline, " "),
			},
		})
	}
	return activities, nil
}
