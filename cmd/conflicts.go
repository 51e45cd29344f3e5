package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/models"
	"github.com/theo/glucolog/internal/output"
)

var conflictsCmd = &cobra.Command{
	Use:     "conflicts",
	Short:   "List unresolved sync conflicts",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		conflicts, err := app.engine.ListConflicts()
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			return output.JSON(conflicts)
		}

		if len(conflicts) == 0 {
			output.Info("No pending conflicts")
			return nil
		}
		for _, c := range conflicts {
			output.Info("#%d  reading %s  detected %s", c.ID, c.ReadingID,
				c.DetectedAt.Local().Format(time.DateTime))
		}
		output.Info("resolve with: glucolog conflicts resolve <id> --keep mine|server|both")
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Resolve one conflict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			output.Error("invalid conflict id: %s", args[0])
			return fmt.Errorf("invalid conflict id: %s", args[0])
		}

		keep, _ := cmd.Flags().GetString("keep")
		var policy models.ResolutionPolicy
		switch keep {
		case "mine":
			policy = models.KeepMine
		case "server":
			policy = models.KeepServer
		case "both":
			policy = models.KeepBoth
		default:
			output.Error("--keep must be mine, server, or both")
			return fmt.Errorf("invalid --keep: %s", keep)
		}

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		if err := app.engine.ResolveConflict(id, policy); err != nil {
			output.Error("%v", err)
			return err
		}

		output.Success("Conflict #%d resolved (%s)", id, policy)
		return nil
	},
}

func init() {
	conflictsCmd.Flags().Bool("json", false, "JSON output")
	resolveCmd.Flags().String("keep", "", "resolution: mine, server, or both")
	conflictsCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(conflictsCmd)
}
