package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/abfall-fhem/internal/app"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the update loops and the HTTP API",
		Long: `Defines the device, runs the update and day switch loops and serves the
readings, state and iCalendar over HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds, err := app.LoadAuthCredentials(service.AuthFile)
	if err != nil {
		return err
	}

	module, closeStore, err := openModule(ctx, service)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := module.Define(ctx); err != nil {
		return err
	}
	defer module.Close()

	return app.NewServer(service.ListenAddr(), module, creds).Run(ctx)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
