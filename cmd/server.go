package cmd

import (
	"github.com/spf13/cobra"

	"depot-hub/config"
	server2 "depot-hub/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
