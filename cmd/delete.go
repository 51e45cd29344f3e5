package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/output"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a reading",
	Long:    `Delete a reading locally. If the reading was synced, the remote delete is issued immediately when online, or queued otherwise.`,
	Args:    cobra.ExactArgs(1),
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		if err := app.engine.DeleteReading(cmd.Context(), args[0]); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Deleted %s", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
