package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/output"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List readings for the active user",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		asJSON, _ := cmd.Flags().GetBool("json")
		since, _ := cmd.Flags().GetString("since")
		until, _ := cmd.Flags().GetString("until")

		app, err := openApp(cmd.Context())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer app.Close()

		if since != "" || until != "" {
			return listRange(cmd, app, since, until, asJSON)
		}

		page, err := app.engine.ListReadings(cmd.Context(), limit, offset)
		if err != nil {
			output.Error("%v", err)
			return err
		}

		if asJSON {
			return output.JSON(page)
		}

		for i := range page.Readings {
			output.Reading(&page.Readings[i])
		}
		output.Info("%d of %d readings", len(page.Readings), page.Total)
		if page.HasMore {
			output.Info("more available: --offset %d", offset+len(page.Readings))
		}
		return nil
	},
}

func listRange(cmd *cobra.Command, app *appContext, since, until string, asJSON bool) error {
	from := time.Time{}
	to := time.Now().UTC()
	var err error

	if since != "" {
		if from, err = time.Parse(time.RFC3339, since); err != nil {
			output.Error("invalid --since (want RFC3339): %s", since)
			return err
		}
	}
	if until != "" {
		if to, err = time.Parse(time.RFC3339, until); err != nil {
			output.Error("invalid --until (want RFC3339): %s", until)
			return err
		}
	}

	readings, err := app.engine.ListReadingsByRange(cmd.Context(), from, to)
	if err != nil {
		output.Error("%v", err)
		return err
	}

	if asJSON {
		return output.JSON(readings)
	}
	for i := range readings {
		output.Reading(&readings[i])
	}
	output.Info("%d readings", len(readings))
	return nil
}

func init() {
	listCmd.Flags().Int("limit", 50, "page size")
	listCmd.Flags().Int("offset", 0, "page offset")
	listCmd.Flags().Bool("json", false, "JSON output")
	listCmd.Flags().String("since", "", "only readings measured at or after this time (RFC3339)")
	listCmd.Flags().String("until", "", "only readings measured at or before this time (RFC3339)")
	rootCmd.AddCommand(listCmd)
}
