package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the chatauth CLI.
func NewRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "chatauth",
		Short: "Authentication service for the chat application",
		Long: `chatauth serves account registration, login, password reset and
the session guard in front of the chat application's static pages.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (YAML)")

	cmd.AddCommand(NewServeCmd(&configFile))
	cmd.AddCommand(NewCheckConfigCmd(&configFile))

	return cmd
}
