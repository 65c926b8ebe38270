package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/abfall-fhem/internal/docs"
)

func newUpdateDocsCmd() *cobra.Command {
	opts := docs.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "update-docs",
		Short: "Regenerate the provider lists of README.md and info.md",
		Long: `Reads the provider descriptors and rewrites the country sections of
README.md and info.md. Providers with an unknown country code are listed
as zombies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := docs.Run(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated %s and %s (%d countries)\n", opts.ReadmePath, opts.InfoPath, len(result.Countries))
			if len(result.Zombies) > 0 {
				fmt.Fprintln(out, "Zombies =========================")
				for _, z := range result.Zombies {
					fmt.Fprintln(out, z)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.ProviderDir, "providers", opts.ProviderDir, "Directory of the provider descriptors")
	cmd.Flags().StringVar(&opts.ReadmePath, "readme", opts.ReadmePath, "README file to update")
	cmd.Flags().StringVar(&opts.InfoPath, "info", opts.InfoPath, "info file to update")
	return cmd
}
