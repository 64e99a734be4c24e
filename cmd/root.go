package cmd

import (
	"github.com/spf13/cobra"

	"depot-hub/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(fetch(config))
	return rootCmd
}
