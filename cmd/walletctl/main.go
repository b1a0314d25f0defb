// Command walletctl is the operator CLI for JetWallet: schema migration,
// administrator seeding, price checks and offline wallet simulation.
package main

import (
	"fmt"
	"os"

	"jetwallet/config"
	"jetwallet/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "walletctl",
		Short:         "Operate a JetWallet deployment.",
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config.yaml (defaults to ./config.yaml)")

	root.AddCommand(migrateCmd(), seedAdminCmd(), pricesCmd(), simulateCmd())
	return root
}

// setup loads configuration and builds the logger shared by every subcommand.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	// Parsing of the command line is done so silence cmd usage
	cmd.SilenceUsage = true

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty), nil
}
