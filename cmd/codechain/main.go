// Copyright 2026 The CodeChain-Go Authors

// Command codechain is the node's entry point: a cobra root command
// with a server subcommand, account-management subcommands, and a
// profiling-oriented execute-block subcommand, replacing the
// flag-based single-binary launcher this module started from.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var logger zerolog.Logger

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "codechain",
		Short:         "codechain is a validator node for the codechain-go network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := zerolog.ParseLevel(logLevel)
			if err != nil {
				level = zerolog.InfoLevel
			}
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(newServerCommand())
	cmd.AddCommand(newAccountCommand())
	cmd.AddCommand(newExecuteBlockCommand())
	return cmd
}
