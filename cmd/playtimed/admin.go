package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

func withAdmin(fn func(cmd *cobra.Command, args []string, a *admin.Surface) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		st, _, log, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		defer st.Close()
		return fn(cmd, args, admin.New(st, log))
	}
}

var statusCmd = &cobra.Command{
	Use:   "status [YYYY-MM-DD]",
	Short: "Show daemon mode and each user's daily summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		today := args0(args, time.Now().Format("2006-01-02"))
		st, err := a.Status(cmd.Context(), today)
		if err != nil {
			return err
		}
		fmt.Printf("mode: %s  epoch: %d\n", st.Mode, st.Epoch)
		for _, u := range st.Users {
			sum, ok := st.Summaries[u.Name]
			if !ok {
				fmt.Printf("%-16s enabled=%v (no summary for %s)\n", u.Name, u.Enabled, today)
				continue
			}
			fmt.Printf("%-16s state=%-14s gaming=%dm total=%dm\n", u.Name, sum.State, sum.GamingTimeSec/60, sum.TotalTimeSec/60)
		}
		return nil
	}),
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Daemon-wide administrative operations",
}

var adminModeCmd = &cobra.Command{
	Use:   "mode [get|set VALUE]",
	Short: "Get or set the daemon's enforcement mode",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		switch args[0] {
		case "get":
			mode, err := a.GetMode(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(mode)
			return nil
		case "set":
			if len(args) != 2 {
				return fmt.Errorf("usage: playtimed admin mode set {normal|passthrough|strict}")
			}
			return a.SetMode(cmd.Context(), domain.DaemonMode(args[1]))
		default:
			return fmt.Errorf("unknown mode subcommand %q", args[0])
		}
	}),
}

func init() {
	adminCmd.AddCommand(adminModeCmd)
}

func args0(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}
