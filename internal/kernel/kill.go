package kernel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/domain"
)

// Enforcer executes the kill protocol: SIGTERM to a PID's process group,
// then SIGKILL escalation if the group is still present one tick later.
// It tracks in-flight terminations across ticks so escalation only fires
// once the grace tick has actually elapsed.
type Enforcer struct {
	procs      domain.ProcessManager
	store      domain.Store
	log        *zap.Logger
	termSentAt map[int]time.Time
}

func NewEnforcer(procs domain.ProcessManager, store domain.Store, log *zap.Logger) *Enforcer {
	return &Enforcer{procs: procs, store: store, log: log, termSentAt: map[int]time.Time{}}
}

// Terminate runs one tick of the kill protocol against pid, owned by user
// and matched by patternID, appending an audit entry for every signal sent.
func (e *Enforcer) Terminate(ctx context.Context, now time.Time, user string, pid int, patternID int64, processName string, tickPeriod time.Duration) error {
	sentAt, escalate := e.termSentAt[pid]
	if !e.procs.IsRunning(pid) {
		delete(e.termSentAt, pid)
		return nil
	}

	if escalate && now.Sub(sentAt) >= tickPeriod {
		if err := e.procs.KillGroup(pid); err != nil && e.log != nil {
			e.log.Warn("kill escalation failed", zap.Int("pid", pid), zap.Error(err))
		}
		delete(e.termSentAt, pid)
		return e.store.AppendAudit(ctx, domain.AuditEntry{
			Timestamp: now, User: user, PID: pid, ProcessName: processName, PatternID: patternID,
			Reason: "limit_exceeded", SignalSent: "SIGKILL", ExitObserved: !e.procs.IsRunning(pid),
		})
	}

	if !escalate {
		if err := e.procs.TerminateGroup(pid); err != nil && e.log != nil {
			e.log.Warn("graceful terminate failed", zap.Int("pid", pid), zap.Error(err))
		}
		e.termSentAt[pid] = now
		return e.store.AppendAudit(ctx, domain.AuditEntry{
			Timestamp: now, User: user, PID: pid, ProcessName: processName, PatternID: patternID,
			Reason: "limit_exceeded", SignalSent: "SIGTERM", ExitObserved: !e.procs.IsRunning(pid),
		})
	}
	return nil
}
