package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/noid254/nikosoko/pkg/logger"
)

var seedFile string

var rootCmd = &cobra.Command{
	Use:   "nikosoko",
	Short: "Niko Soko marketplace service",
	Long: `Niko Soko connects customers with local service providers.

Available commands:
  serve - Run the HTTP API
  seed  - Validate the seed catalogue and optionally load it into Postgres`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&seedFile, "seed-file", "", "Seed catalogue YAML (default: embedded, or SEED_FILE)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}
