package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/config"
	"github.com/theo/glucolog/internal/output"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Short:   "Sync local readings with the backend",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		pushOnly, _ := cmd.Flags().GetBool("push")
		pullOnly, _ := cmd.Flags().GetBool("pull")

		if !config.IsAuthenticated() {
			output.Error("not logged in (run: glucolog login)")
			return fmt.Errorf("not authenticated")
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		if !app.monitor.Online() {
			output.Warning("offline, nothing synced")
			return nil
		}

		switch {
		case pushOnly:
			result, err := app.engine.SyncPendingReadings(cmd.Context())
			if err != nil {
				output.Error("push: %v", err)
				return err
			}
			output.Success("Pushed %d, failed %d", result.Success, result.Failed)
		case pullOnly:
			result, err := app.engine.FetchFromBackend(cmd.Context())
			if err != nil {
				output.Error("pull: %v", err)
				return err
			}
			output.Success("Fetched %d remote readings, merged %d", result.Fetched, result.Merged)
		default:
			result, err := app.engine.PerformFullSync(cmd.Context())
			if err != nil {
				output.Error("sync: %v", err)
				return err
			}
			output.Success("Pushed %d, fetched %d, failed %d", result.Pushed, result.Fetched, result.Failed)
		}

		if conflicts, err := app.engine.ListConflicts(); err == nil && len(conflicts) > 0 {
			output.Warning("%d conflict(s) need resolution (run: glucolog conflicts)", len(conflicts))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("push", false, "push only")
	syncCmd.Flags().Bool("pull", false, "pull only")
	rootCmd.AddCommand(syncCmd)
}
