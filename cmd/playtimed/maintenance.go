package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronsb/playtimed/internal/admin"
	"github.com/aaronsb/playtimed/internal/domain"
)

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Run retention cleanup against the default policy (old events, sessions, message log rows)",
	RunE: withAdmin(func(cmd *cobra.Command, args []string, a *admin.Surface) error {
		if err := a.Maintain(cmd.Context(), domain.DefaultRetentionPolicy()); err != nil {
			return err
		}
		fmt.Println("maintenance complete")
		return nil
	}),
}
