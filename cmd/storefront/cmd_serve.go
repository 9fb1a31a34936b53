// cmd/storefront/cmd_serve.go
package main

import (
	"context"

	"github.com/spf13/cobra"

	"storefront/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storefront HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := startApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	srv, err := server.New(a.serverDeps())
	if err != nil {
		return err
	}

	a.logger.Info("starting storefront", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})
	if err := srv.Run(cmd.Context()); err != nil {
		return err
	}
	a.logger.Info("storefront stopped gracefully", nil)
	return nil
}
