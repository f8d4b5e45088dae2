// Package cmd implements the carenav command-line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/carenav/carenav/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "carenav",
	Short: "CareNav - autism services navigator for North Carolina",
	Long: `CareNav answers questions about autism services in North Carolina
using retrieval-augmented generation over a curated knowledge base.

Run 'carenav serve' to start the HTTP API, or 'carenav ask' for a
one-shot question from the terminal.`,
	SilenceUsage: true,
}

// Execute runs the root command. It is the single entry point called
// from main().
func Execute() error {
	slog.SetDefault(initLogger())
	return rootCmd.Execute()
}

// initLogger builds the process-wide logger.
//
// Log level is controlled by the DEBUG environment variable:
//   - DEBUG set (any value): debug level logging
//   - DEBUG not set: info level logging
func initLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
