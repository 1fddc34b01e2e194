package workers

import (
	"context"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/aaronsb/playtimed/internal/domain"
)

// ProcessManager implements domain.ProcessManager using gopsutil for
// enumeration and syscall-level process-group signalling for the kill
// protocol, extending the teacher's single-PID Kill() into a
// group-terminate/group-kill pair.
type ProcessManager struct{}

func NewProcessManager() *ProcessManager { return &ProcessManager{} }

var _ domain.ProcessManager = (*ProcessManager)(nil)

func (pm *ProcessManager) ListForUID(ctx context.Context, uid int) ([]domain.ProcessHandle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, domain.Wrap(domain.ErrWorkerUnavailable, "ProcessManager.ListForUID", err)
	}

	var out []domain.ProcessHandle
	for _, p := range procs {
		uids, err := p.UidsWithContext(ctx)
		if err != nil || len(uids) == 0 || int(uids[0]) != uid {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // process exited mid-scan
		}
		cmdline, _ := p.CmdlineSliceWithContext(ctx)
		ppid, _ := p.PpidWithContext(ctx)
		cpuPct, _ := p.CPUPercentWithContext(ctx)

		out = append(out, domain.ProcessHandle{
			PID:        int(p.Pid),
			PPID:       int(ppid),
			Name:       name,
			Cmdline:    cmdline,
			UID:        uid,
			CPUPercent: cpuPct,
		})
	}
	return out, nil
}

func (pm *ProcessManager) IsRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func (pm *ProcessManager) TerminateGroup(pid int) error {
	return signalGroup(pid, syscall.SIGTERM)
}

func (pm *ProcessManager) KillGroup(pid int) error {
	return signalGroup(pid, syscall.SIGKILL)
}

func signalGroup(pid int, sig syscall.Signal) error {
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return domain.Wrap(domain.ErrProcessNotFound, "signalGroup", err)
	}
	if err := syscall.Kill(-pgid, sig); err != nil {
		return domain.Wrap(domain.ErrProcessKillFailed, "signalGroup", err)
	}
	return nil
}
