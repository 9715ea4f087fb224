// Package cmd defines the CLI commands for the pdfhound executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfhound",
		Short: "A breadth-first crawler that hunts down PDF documents on a site.",
		Long: `pdfhound crawls a site breadth-first from a seed URL, detects links that
likely reference PDF documents using a layered heuristic pipeline, verifies
candidates against live server responses, and downloads confirmed PDFs while
respecting robots.txt and per-host rate limits.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newCrawlCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
