// Package cmd defines the CLI commands for the zvezda-crawler executable.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// defaultConfigFile is read when --config is not given.
const defaultConfigFile = "crawler_config.json"

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zvezda-crawler",
		Short: "Crawls zvezdaaltaya.ru and extracts news articles.",
		Long: `zvezda-crawler walks the listing pages of the Zvezda Altaya news site,
collects article links up to the configured budget, then fetches and parses
every article into raw text and metadata files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "crawler config file (JSON or YAML)")
	cmd.AddCommand(newRunCmd())
	return cmd
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the run.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
