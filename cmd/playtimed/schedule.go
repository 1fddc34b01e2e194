package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "View or edit a user's 168-hour allowed schedule",
}

var scheduleGetCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Print a user's 168-character schedule grid (empty means all-allowed)",
	Args:  cobra.ExactArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		grid, err := a.GetSchedule(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if grid == "" {
			fmt.Println("(unset: all hours allowed)")
			return nil
		}
		for day := 0; day < 7; day++ {
			fmt.Println(grid[day*24 : day*24+24])
		}
		return nil
	}),
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set NAME GRID168",
	Short: "Replace a user's full 168-character schedule grid",
	Args:  cobra.ExactArgs(2),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		return a.SetSchedule(cmd.Context(), args[0], args[1])
	}),
}

var scheduleSlotCmd = &cobra.Command{
	Use:   "slot NAME WEEKDAY*24+HOUR {allow|deny}",
	Short: "Flip a single hour cell (Monday=0)",
	Args:  cobra.ExactArgs(3),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid slot %q: %w", args[1], err)
		}
		var allowed bool
		switch args[2] {
		case "allow":
			allowed = true
		case "deny":
			allowed = false
		default:
			return fmt.Errorf("third argument must be allow or deny, got %q", args[2])
		}
		return a.SetScheduleSlot(cmd.Context(), args[0], slot, allowed)
	}),
}

var scheduleExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write every user's schedule and limits to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		entries, err := a.ExportSchedule(cmd.Context())
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(args[0], data, 0600)
	}),
}

var scheduleImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Replace every named user's schedule and limits from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var entries map[string]admin.ScheduleEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}
		return a.ImportSchedule(cmd.Context(), entries)
	}),
}

func init() {
	scheduleCmd.AddCommand(scheduleGetCmd)
	scheduleCmd.AddCommand(scheduleSetCmd)
	scheduleCmd.AddCommand(scheduleSlotCmd)
	scheduleCmd.AddCommand(scheduleExportCmd)
	scheduleCmd.AddCommand(scheduleImportCmd)
}
