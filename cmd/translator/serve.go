package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nulzo/translation-router/internal/app"
	"github.com/nulzo/translation-router/internal/platform/logger"
	"github.com/nulzo/translation-router/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translation API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				root.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stopTracing, err := root.startTracing(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer stopTracing()

			a, err := app.New(ctx, root.cfg, logger.Get())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			return server.New(root.cfg, logger.Get(), a.Router, a.Repo).Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides server.port)")
	return cmd
}
