package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage monitored users and their limits",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored users",
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		users, err := a.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			fmt.Printf("%-16s uid=%-6d enabled=%v\n", u.Name, u.UID, u.Enabled)
		}
		return nil
	}),
}

var userSetCmd = &cobra.Command{
	Use:   "set NAME UID {enable|disable}",
	Short: "Add or update a monitored user",
	Args:  cobra.ExactArgs(3),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		uid, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid uid %q: %w", args[1], err)
		}
		var enabled bool
		switch args[2] {
		case "enable":
			enabled = true
		case "disable":
			enabled = false
		default:
			return fmt.Errorf("third argument must be enable or disable, got %q", args[2])
		}
		return a.SetUser(cmd.Context(), domain.User{Name: args[0], UID: uid, Enabled: enabled})
	}),
}

var userLimitsCmd = &cobra.Command{
	Use:   "limits NAME [MINUTES]",
	Short: "Get or set a user's daily gaming limit in minutes",
	Args:  cobra.RangeArgs(1, 2),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		limits, err := a.GetLimits(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(args) == 1 {
			fmt.Printf("gaming_limit_min=%d grace_period_sec=%d daily_total_min=%v\n",
				limits.GamingLimitMin, limits.GracePeriodSec, limits.DailyTotalMin)
			return nil
		}
		minutes, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid minutes %q: %w", args[1], err)
		}
		limits.GamingLimitMin = minutes
		return a.SetLimits(cmd.Context(), limits)
	}),
}

func init() {
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userSetCmd)
	userCmd.AddCommand(userLimitsCmd)
}
