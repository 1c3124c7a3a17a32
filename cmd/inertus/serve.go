package main

import (
	"inertus/internal/bootstrap"
	"inertus/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and websocket server",
	Long: `Starts the API together with the notification outbox dispatcher and, when Redis
is reachable, the pub/sub subscriber that feeds local websocket clients.

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(bootstrap.Options{}, func(rt *bootstrap.Runtime) error {
			srv, err := server.NewServer(rt.Config, rt.DB, rt.Redis)
			if err != nil {
				return err
			}
			return srv.Run(cmd.Context())
		})
	},
}
