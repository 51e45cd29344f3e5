package cmd

import (
	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/output"
	"github.com/theo/glucolog/internal/store"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Short:   "Create the local database",
	GroupID: "core",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Initialize(getDataDir())
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer st.Close()

		output.Success("Initialized glucolog database in %s", getDataDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
