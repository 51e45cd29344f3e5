package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/theo/glucolog/internal/config"
	"github.com/theo/glucolog/internal/output"
)

var loginCmd = &cobra.Command{
	Use:     "login",
	Short:   "Store backend credentials and set the active user",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		apiKey, _ := cmd.Flags().GetString("api-key")
		userID, _ := cmd.Flags().GetString("user")
		email, _ := cmd.Flags().GetString("email")
		server, _ := cmd.Flags().GetString("server")

		if apiKey == "" || userID == "" {
			output.Error("--api-key and --user are required")
			return fmt.Errorf("missing credentials")
		}

		deviceID, err := config.GetDeviceID()
		if err != nil {
			output.Error("device id: %v", err)
			return err
		}

		creds := &config.AuthCredentials{
			APIKey:    apiKey,
			UserID:    userID,
			Email:     email,
			ServerURL: server,
			DeviceID:  deviceID,
		}
		if err := config.SaveAuth(creds); err != nil {
			output.Error("save credentials: %v", err)
			return err
		}

		output.Success("Logged in as %s (device %s)", userID, deviceID)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	Short:   "Clear stored credentials and the active user",
	GroupID: "sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ClearAuth(); err != nil {
			output.Error("clear credentials: %v", err)
			return err
		}
		output.Success("Logged out")
		return nil
	},
}

func init() {
	loginCmd.Flags().String("api-key", "", "backend API key")
	loginCmd.Flags().String("user", "", "user identifier")
	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("server", "", "backend server URL")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
