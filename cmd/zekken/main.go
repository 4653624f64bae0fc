// README: CLI entry point; serve runs the local session API, the other commands drive the session from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "zekken",
	Short: "Compare simulated cab fares across Uber, Ola and inDrive",
	Long: `zekken asks a generative model for plausible cab offers between two places,
then lets you filter, sort and bound them by fare. Recent searches and
bookmarked places are kept in the configured key-value store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
