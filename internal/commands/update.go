package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/abfall-fhem/internal/app"
	"github.com/klabast/wb-services/abfall-fhem/internal/readings"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Fetch all sources once and print the readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFetchedModule(cmd, func(ctx context.Context, module *app.Module) error {
				snapshot, err := module.Store().Snapshot(ctx)
				if err != nil {
					return err
				}
				printReadings(cmd.OutOrStdout(), snapshot)
				return nil
			})
		},
	}
}

func newICalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ical",
		Short: "Fetch all sources once and print the iCalendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFetchedModule(cmd, func(_ context.Context, module *app.Module) error {
				_, err := io.WriteString(cmd.OutOrStdout(), module.ICalendar())
				return err
			})
		},
	}
}

// withFetchedModule runs one synchronous fetch and update pass without
// starting the loops and hands the module to fn
func withFetchedModule(cmd *cobra.Command, fn func(context.Context, *app.Module) error) error {
	ctx := cmdContext(cmd)
	module, closeStore, err := openModule(ctx, service)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := module.Fetch(ctx); err != nil {
		return err
	}
	return fn(ctx, module)
}

func printReadings(w io.Writer, snapshot map[string]readings.Reading) {
	for _, name := range readings.Names(snapshot) {
		fmt.Fprintf(w, "%-28s %s\n", name, snapshot[name].Value)
	}
}
