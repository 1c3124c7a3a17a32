// Command inertus runs the Inertus community API and its maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inertus/internal/bootstrap"
	"inertus/internal/config"

	"github.com/spf13/cobra"
)

// @title Inertus API
// @version 1.0
// @description Peer-support community API with posts, groups, direct messages, live notifications and the PsychAI companion

// @contact.name API Support
// @contact.email support@inertus.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const closeTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "inertus",
	Short: "Inertus peer-support community API",
	Long: `Inertus serves the community API: accounts, posts, resources, support groups,
direct messages, notifications with live websocket push, and the PsychAI companion.

Configuration is read from .env, config.yml and the environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// withRuntime loads configuration, initializes the runtime and closes it after fn returns.
func withRuntime(opts bootstrap.Options, fn func(rt *bootstrap.Runtime) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		_ = rt.Close(ctx)
	}()

	return fn(rt)
}
