package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/version"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:     "glucolog",
	Short:   "Offline-first glucose tracking with backend sync",
	Long:    `glucolog - record glucose readings locally, online or offline, and reconcile them with the backend when connectivity allows.`,
	Version: version.Version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getDataDir returns the directory holding the local database
func getDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "glucolog")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for the local database (default ~/.local/share/glucolog)")
	rootCmd.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync Commands:"},
	)
}
