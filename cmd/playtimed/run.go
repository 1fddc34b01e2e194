package main

import (
	"context"
	"os"
	"os/signal"
	"os/user"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aaronsb/playtimed/internal/clock"
	"github.com/aaronsb/playtimed/internal/daemon"
	"github.com/aaronsb/playtimed/internal/domain"
	"github.com/aaronsb/playtimed/internal/notify"
	"github.com/aaronsb/playtimed/internal/workers"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enforcement daemon loop in the foreground",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	st, cfg, log, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	defer st.Close()

	if err := st.SeedDaemonModeIfUnset(cmd.Context(), cfg.Daemon.Mode); err != nil {
		return err
	}
	mode, err := st.GetDaemonMode(cmd.Context())
	if err != nil {
		return err
	}

	compositor := workers.NewKWinCompositor(5 * time.Second)
	procManager := workers.NewProcessManager()

	firefoxProfile := ""
	if u, err := user.Current(); err == nil {
		firefoxProfile = workers.DefaultFirefoxProfile(u.HomeDir)
	}

	detectionWorkers := []domain.DetectionWorker{
		workers.NewProcessWorker(procManager, st, log.Named("worker.process")),
		workers.NewChromeWorker(compositor, log.Named("worker.chrome")),
		workers.NewFirefoxWorker(compositor, firefoxProfile, log.Named("worker.firefox")),
	}

	dispatcher := notify.New(log.Named("notify"),
		notify.NewClippy(),
		notify.NewFreedesktop(log.Named("notify.freedesktop")),
		notify.NewLogOnly(log.Named("notify.logonly")),
	)
	defer dispatcher.Close(context.Background())

	opts := daemon.Options{
		TickPeriod:      time.Duration(cfg.Daemon.PollIntervalSec) * time.Second,
		ResetHour:       cfg.Daemon.ResetHour,
		CPUThreshold:    cfg.Daemon.CPUThreshold,
		MinSamples:      5,
		SampleWindowSec: 3600,
	}

	loop := daemon.New(st, clock.New(), detectionWorkers, procManager, dispatcher, mode, opts, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("received shutdown signal")
		cancel()
	}()

	log.Info("playtimed daemon starting", zap.Int("pid", os.Getpid()), zap.Duration("tick_period", opts.TickPeriod))
	if err := loop.Run(ctx); err != nil && !domain.Is(err, domain.ErrShutdown) {
		return err
	}
	log.Info("playtimed daemon stopped")
	return nil
}
