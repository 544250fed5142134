// Command chronolog is the CLI front-end for ChronoLog's core engine.
// It is a thin consumer of the root chronolog package: every command
// below does argument parsing, output formatting, and little else —
// the invariants live in internal/repo and its dependencies.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/chronolog/chronolog"
	"github.com/chronolog/chronolog/internal/config"
	"github.com/chronolog/chronolog/internal/logging"
)

var (
	verbose  bool
	noColor  bool
	repoPath string
)

var rootCmd = &cobra.Command{
	Use:           "chronolog",
	Short:         "Frictionless local version control",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		slog.SetDefault(logging.NewCLILogger(verbose))
		color.NoColor = noColor || !isatty.IsTerminal(os.Stdout.Fd())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&repoPath, "repo", "C", ".", "path to the repository (or a directory inside one)")
}

// openRepo opens the repository containing repoPath, printing a
// [ChronoLog]-prefixed error and exiting non-zero on failure, matching
// spec.md §6's error-output convention.
func openRepo() *chronolog.Repository {
	repo, err := chronolog.Open(repoPath)
	if err != nil {
		fatal(err)
	}
	return repo
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[ChronoLog] %v\n", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fatal(err)
	}
}
