// Package main is the CLI entry point for playtimed.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aaronsb/playtimed/internal/config"
	"github.com/aaronsb/playtimed/internal/keys"
	"github.com/aaronsb/playtimed/internal/store"
	"github.com/aaronsb/playtimed/internal/version"
)

var (
	configPath string
	foreground bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "playtimed",
	Short:   "Screen-time enforcement daemon for shared desktops",
	Long:    `playtimed monitors per-user gaming and browsing activity against configured daily budgets and schedules, warns, then enforces.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/playtimed/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&foreground, "foreground", false, "log to stderr instead of the data-dir log file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(patternsCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(messageCmd)
	rootCmd.AddCommand(maintenanceCmd)
	rootCmd.AddCommand(adminCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

// createLogger builds a hand-configured zap.Config: ISO8601 time encoding,
// stderr in foreground mode, <dataDir>/playtimed.log otherwise. The log
// file is appended to and never rotated. Not zap.NewProductionConfig()
// defaults verbatim.
func createLogger(dataDir string, foreground bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if foreground {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	} else {
		logPath := dataDir + "/playtimed.log"
		cfg.OutputPaths = []string{logPath}
		cfg.ErrorOutputPaths = []string{logPath}
	}

	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// openStore loads the config, ensures an encryption key exists, and opens
// the Store, returning it alongside the resolved config and a logger the
// caller must Sync.
func openStore() (*store.Store, *config.Config, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	dataDir := filepath.Dir(cfg.Daemon.DBPath)
	log := createLogger(dataDir, foreground)

	provider := keys.NewFileKeyProvider(dataDir)
	key, err := keys.Ensure(provider)
	if err != nil {
		return nil, nil, log, fmt.Errorf("ensure encryption key: %w", err)
	}

	st, err := store.Open(dataDir, key, log.Named("store"))
	if err != nil {
		return nil, nil, log, fmt.Errorf("open store: %w", err)
	}
	return st, cfg, log, nil
}

