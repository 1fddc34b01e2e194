package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
)

var auditCmd = &cobra.Command{
	Use:   "audit [LIMIT]",
	Short: "Dump the enforcement audit log, most recent first",
	Args:  cobra.MaximumNArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		limit := 50
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[0], err)
			}
			limit = n
		}
		entries, err := a.DumpAudit(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, e := range entries {
			fmt.Printf("%s user=%-12s pid=%-7d pattern=%-6d signal=%-6s exited=%v  %s (%s)\n",
				e.Timestamp.Format("2006-01-02T15:04:05"), e.User, e.PID, e.PatternID, e.SignalSent, e.ExitObserved, e.Reason, e.ProcessName)
		}
		return nil
	}),
}
