package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tordrt/schemaconv/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve detection and conversion over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(a.logger, a.generateOptions()).Run(ctx, stringFlag(cmd, "addr", addr, a.cfg.Server.Addr))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: :8080)")
	return cmd
}
