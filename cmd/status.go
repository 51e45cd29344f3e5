package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/config"
	"github.com/theo/glucolog/internal/output"
	"github.com/theo/glucolog/internal/version"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show connectivity, scope, and queue state",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		if version.IsDevelopmentVersion(version.Version) {
			output.Info("Version: %s (development build)", version.Version)
		} else {
			output.Info("Version: %s", version.Version)
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		if app.monitor.Online() {
			output.Success("Network: online (%s)", config.GetServerURL())
		} else {
			output.Warning("Network: offline")
		}

		if user, ok := app.gate.Current(); ok {
			output.Info("Active user: %s", user)
		} else {
			output.Warning("No active user (run: glucolog login)")
		}

		pending, err := app.engine.PendingCount()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("Pending sync queue entries: %d", pending)

		conflicts, err := app.engine.ListConflicts()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		output.Info("Pending conflicts: %d", len(conflicts))
		output.Info("Engine state: %s", app.engine.State())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
