package main

import (
	"inertus/internal/bootstrap"
	"inertus/internal/database"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Applies the schema of every persistent model. Outside production the server
does this on startup; in production run it explicitly before deploying.`,
	RunE: func(*cobra.Command, []string) error {
		return withRuntime(bootstrap.Options{SkipRedis: true}, func(rt *bootstrap.Runtime) error {
			return database.Migrate(rt.DB)
		})
	},
}
