// Package commands implements the abfall-fhem command line.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/abfall-fhem/internal/config"
	"github.com/klabast/wb-services/abfall-fhem/pkg/logging"
)

var logLevel string

// service is loaded before every command runs
var service config.Service

var rootCmd = &cobra.Command{
	Use:   "abfall-fhem",
	Short: "Waste collection calendar for FHEM",
	Long: `abfall-fhem fetches waste collection dates from the configured sources,
keeps one reading set per waste type and serves the readings together with
an iCalendar export.

Service settings come from the environment (or a .env file):
  ABFALL_CONFIG, ABFALL_DEVICE, PORT, READINGS_FILE, DATABASE_URL,
  AUTH_FILE, SECRETS_FILE, LOG_LEVEL`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		svc, err := config.LoadService()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			svc.LogLevel = logLevel
		}
		service = svc
		logging.InitForCLI(logging.ParseLevel(svc.LogLevel), os.Stderr)
		return nil
	},
}

// SetVersion sets the version reported by the version command and --version
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "abfall-fhem version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newICalCmd())
	rootCmd.AddCommand(newUpdateDocsCmd())
	rootCmd.AddCommand(newHashPasswordCmd())
	rootCmd.AddCommand(newVersionCmd())
}
