package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

var messageCmd = &cobra.Command{
	Use:   "message",
	Short: "Manage notification templates",
}

var messageListCmd = &cobra.Command{
	Use:   "list INTENTION",
	Short: "List templates for an intention (e.g. time_warning_30, grace_period, enforcement)",
	Args:  cobra.ExactArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		templates, err := a.ListTemplates(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, t := range templates {
			fmt.Printf("%-6d variant=%-10s enabled=%v  %q / %q\n", t.ID, t.Variant, t.Enabled, t.Title, t.Body)
		}
		return nil
	}),
}

var messageAddCmd = &cobra.Command{
	Use:   "add INTENTION VARIANT TITLE BODY",
	Short: "Add a notification template variant",
	Args:  cobra.ExactArgs(4),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		t := domain.MessageTemplate{
			Intention: args[0],
			Variant:   args[1],
			Title:     args[2],
			Body:      args[3],
			Urgency:   domain.UrgencyNormal,
			Enabled:   true,
		}
		id, err := a.AddTemplate(cmd.Context(), t)
		if err != nil {
			return err
		}
		fmt.Printf("template %d created\n", id)
		return nil
	}),
}

var messageTestCmd = &cobra.Command{
	Use:   "test INTENTION [key=value ...]",
	Short: "Render every enabled template variant for an intention without dispatching it",
	Args:  cobra.MinimumNArgs(1),
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		vars := make(map[string]string, len(args)-1)
		for _, kv := range args[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return fmt.Errorf("expected key=value, got %q", kv)
			}
			vars[parts[0]] = parts[1]
		}
		rendered, err := a.TestRender(cmd.Context(), args[0], vars)
		if err != nil {
			return err
		}
		for i, r := range rendered {
			fmt.Printf("--- variant %d ---\n%s\n", i, r)
		}
		return nil
	}),
}

func init() {
	messageCmd.AddCommand(messageListCmd)
	messageCmd.AddCommand(messageAddCmd)
	messageCmd.AddCommand(messageTestCmd)
}
