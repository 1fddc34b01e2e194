package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Manage classification patterns",
}

var patternsListCmd = &cobra.Command{
	Use:   "list [OWNER]",
	Short: "List patterns, optionally scoped to one owner (empty owner lists global patterns)",
	Args:  cobra.MaximumNArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		var patterns []domain.Pattern
		var err error
		if len(args) == 1 {
			patterns, err = a.ListPatterns(cmd.Context(), args[0])
		} else {
			patterns, err = a.ListAllPatterns(cmd.Context())
		}
		if err != nil {
			return err
		}
		for _, p := range patterns {
			fmt.Printf("%-6d %-14s %-10s %-9s owner=%-10s %q\n", p.ID, p.PatternType, p.Category, p.MonitorState, p.Owner, p.PatternRegex)
		}
		return nil
	}),
}

var patternsAddCmd = &cobra.Command{
	Use:   "add TYPE REGEX CATEGORY DISPLAY_NAME [OWNER]",
	Short: "Add a new pattern (TYPE: process|browser_domain)",
	Args:  cobra.RangeArgs(4, 5),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		owner := ""
		if len(args) == 5 {
			owner = args[4]
		}
		p := domain.Pattern{
			PatternType:  domain.PatternType(args[0]),
			PatternRegex: args[1],
			Category:     domain.Category(args[2]),
			DisplayName:  args[3],
			Owner:        owner,
			Priority:     0,
		}
		id, err := a.AddPattern(cmd.Context(), p)
		if err != nil {
			return err
		}
		fmt.Printf("pattern %d created\n", id)
		return nil
	}),
}

var patternsUpdateCmd = &cobra.Command{
	Use:   "update ID REGEX CATEGORY DISPLAY_NAME",
	Short: "Update an existing pattern's regex, category and display name",
	Args:  cobra.ExactArgs(4),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}
		p := domain.Pattern{
			ID:           id,
			PatternRegex: args[1],
			Category:     domain.Category(args[2]),
			DisplayName:  args[3],
		}
		return a.UpdatePattern(cmd.Context(), p)
	}),
}

var patternsRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Mark a pattern as ignored (does not delete history)",
	Args:  cobra.ExactArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", args[0], err)
		}
		return a.RemovePattern(cmd.Context(), id)
	}),
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsAddCmd)
	patternsCmd.AddCommand(patternsUpdateCmd)
	patternsCmd.AddCommand(patternsRemoveCmd)
}
