// Package cmd implements the command-line interface for salewatch.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug mode for all commands.
	debug bool

	// rootCmd represents the root command for the salewatch CLI.
	rootCmd = &cobra.Command{
		Use:   "salewatch",
		Short: "A recurring sale-listing crawler and notifier",
		Long: `salewatch periodically crawls upstream sale listings, reconciles
them against stored state, notifies on qualifying discounts, and serves a
read API over the stored records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides are visible to viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug mode")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "salewatch version %s\n", version)
		},
	})

	rootCmd.AddCommand(newCrawlCommand())
	rootCmd.AddCommand(newScheduleCommand())
	rootCmd.AddCommand(newHTTPDCommand())
}
