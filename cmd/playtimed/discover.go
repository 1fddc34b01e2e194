package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Review unclassified activity awaiting promotion to a pattern",
}

var discoverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovery candidates ordered by most recently seen",
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		candidates, err := a.ListCandidates(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range candidates {
			fmt.Printf("%-14s owner=%-10s samples=%-4d runtime=%ds last_seen=%s  %q\n",
				c.PatternType, c.Owner, c.Samples, c.AccumulatedRuntimeSec, c.LastSeen.Format("2006-01-02T15:04:05"), c.Key)
		}
		return nil
	}),
}

var discoverGetCmd = &cobra.Command{
	Use:   "get OWNER TYPE KEY",
	Short: "Show one discovery candidate's accumulated samples",
	Args:  cobra.ExactArgs(3),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		c, found, err := a.GetCandidate(cmd.Context(), args[0], domain.PatternType(args[1]), args[2])
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("no such candidate")
			return nil
		}
		fmt.Printf("owner=%s type=%s key=%q samples=%d runtime=%ds first_seen=%s last_seen=%s\n",
			c.Owner, c.PatternType, c.Key, c.Samples, c.AccumulatedRuntimeSec,
			c.FirstSeen.Format("2006-01-02T15:04:05"), c.LastSeen.Format("2006-01-02T15:04:05"))
		return nil
	}),
}

var discoverPromoteCmd = &cobra.Command{
	Use:   "promote OWNER TYPE KEY CATEGORY DISPLAY_NAME",
	Short: "Promote a discovery candidate into an active pattern",
	Args:  cobra.ExactArgs(5),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		p, err := a.PromoteCandidate(cmd.Context(), args[0], domain.PatternType(args[1]), args[2], domain.Category(args[3]), args[4])
		if err != nil {
			return err
		}
		fmt.Printf("promoted to pattern %d\n", p.ID)
		return nil
	}),
}

var discoverIgnoreCmd = &cobra.Command{
	Use:   "ignore OWNER TYPE KEY",
	Short: "Discard a discovery candidate without promoting it",
	Args:  cobra.ExactArgs(3),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		return a.IgnoreCandidate(cmd.Context(), args[0], domain.PatternType(args[1]), args[2])
	}),
}

func init() {
	discoverCmd.AddCommand(discoverListCmd)
	discoverCmd.AddCommand(discoverGetCmd)
	discoverCmd.AddCommand(discoverPromoteCmd)
	discoverCmd.AddCommand(discoverIgnoreCmd)
}
