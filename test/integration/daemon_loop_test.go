//go:build integration

package integration

import (
	"context"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/daemon"
	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/store"
)

var _ = Describe("Daemon loop tick sequencing", func() {
	var (
		dataDir string
		st      *store.Store
		clock   *tickingClock
		worker  *fixedActivityWorker
		loop    *daemon.Loop
		u       domain.User
		start   time.Time
	)

	BeforeEach(func() {
		var err error
		dataDir, err = os.MkdirTemp("", "playtimed-daemon-*")
		Expect(err).NotTo(HaveOccurred())

		st, err = store.Open(dataDir, nil, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		// The loop skips any user without a matching OS account, so the
		// fixture user must resolve via the current process's own UID.
		u = domain.User{Name: "fixture", UID: os.Getuid(), Enabled: true}
		Expect(st.UpsertUser(context.Background(), u)).To(Succeed())
		Expect(st.SetLimits(context.Background(), domain.Limits{
			User: u.Name, GamingLimitMin: 60, GracePeriodSec: 300, Schedule: "",
		})).To(Succeed())
		Expect(st.SeedDaemonModeIfUnset(context.Background(), domain.ModeNormal)).To(Succeed())

		start = time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
		clock = newTickingClock(start)
		worker = &fixedActivityWorker{}

		loop = daemon.New(st, clock, []domain.DetectionWorker{worker}, noopProcessManager{}, discardDispatcher{},
			domain.ModeNormal, daemon.Options{TickPeriod: 30 * time.Second, ResetHour: 4, CPUThreshold: 5.0, MinSamples: 5, SampleWindowSec: 3600}, zap.NewNop())
	})

	AfterEach(func() {
		st.Close()
		os.RemoveAll(dataDir)
	})

	// Concrete Scenario 2: an idle launcher with no gaming pattern match
	// still accumulates total_time_sec across the tracked-category union,
	// without ever touching gaming_time_sec. The launcher is already
	// running when the window starts (tracked_active seeded true), so
	// every one of the 60 ticks below is a steady-state active→active
	// transition and the 30-minute total lands exactly on 1800 rather
	// than being short one startup tick.
	It("accumulates total time for a launcher pattern without counting it as gaming", func() {
		_, err := st.InsertPattern(context.Background(), domain.Pattern{
			PatternType: domain.PatternTypeProcess, PatternRegex: "^steam$",
			DisplayName: "Steam launcher", Category: domain.CategoryLauncher, MonitorState: domain.MonitorActive,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(st.SaveDailySummary(context.Background(), domain.DailySummary{
			User: u.Name, Date: "2026-08-03", State: domain.StateAvailable,
			TrackedActive: true, LastPollAt: start, LastStateChange: start,
		})).To(Succeed())

		worker.Set([]domain.DetectedActivity{{Key: "steam", Source: "process"}})

		for i := 0; i < 60; i++ {
			clock.Advance(30 * time.Second)
			Expect(loop.Tick(context.Background())).To(Succeed())
		}

		summary, ok, err := st.LoadDailySummary(context.Background(), u.Name, "2026-08-03")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(summary.TotalTimeSec).To(Equal(int64(1800)))
		Expect(summary.GamingTimeSec).To(BeZero())
	})

	It("counts a matched gaming pattern toward both total and gaming time", func() {
		_, err := st.InsertPattern(context.Background(), domain.Pattern{
			PatternType: domain.PatternTypeProcess, PatternRegex: "^game$",
			DisplayName: "Some Game", Category: domain.CategoryGaming, MonitorState: domain.MonitorActive,
		})
		Expect(err).NotTo(HaveOccurred())

		pid := 4242
		cpu := 50.0
		worker.Set([]domain.DetectedActivity{{Key: "game", Source: "process", PID: &pid, CPUPercent: &cpu}})

		for i := 0; i < 10; i++ {
			clock.Advance(30 * time.Second)
			Expect(loop.Tick(context.Background())).To(Succeed())
		}

		summary, ok, err := st.LoadDailySummary(context.Background(), u.Name, "2026-08-03")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(summary.GamingTimeSec).To(Equal(int64(270)), "first tick opens the session without accruing time")
		Expect(summary.TotalTimeSec).To(Equal(int64(270)))
	})

	// A matched gaming pattern whose observed CPU sample never reaches the
	// pattern's own cpu_threshold must not register as gaming activity.
	It("does not count a matched gaming pattern below its per-pattern cpu_threshold", func() {
		threshold := 80.0
		_, err := st.InsertPattern(context.Background(), domain.Pattern{
			PatternType: domain.PatternTypeProcess, PatternRegex: "^idle-game$",
			DisplayName: "Idle Game", Category: domain.CategoryGaming, MonitorState: domain.MonitorActive,
			CPUThreshold: &threshold,
		})
		Expect(err).NotTo(HaveOccurred())

		pid := 4343
		cpu := 1.0
		worker.Set([]domain.DetectedActivity{{Key: "idle-game", Source: "process", PID: &pid, CPUPercent: &cpu}})

		for i := 0; i < 5; i++ {
			clock.Advance(30 * time.Second)
			Expect(loop.Tick(context.Background())).To(Succeed())
		}

		summary, ok, err := st.LoadDailySummary(context.Background(), u.Name, "2026-08-03")
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(summary.GamingTimeSec).To(BeZero())
		Expect(summary.TotalTimeSec).To(BeZero())
	})
})
