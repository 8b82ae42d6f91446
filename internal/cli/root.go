// Package cli defines Cobra command definitions for the qudud CLI.
// This file contains the root command, version flag, and help output.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qudud-dev/qudud/internal/tui"
	"github.com/qudud-dev/qudud/internal/tui/app"
)

var version = "dev" // set via ldflags at build time

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	apiURL string
	debug  bool
}

// NewRootCmd builds the qudud command tree.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "qudud",
		Short: "Terminal client for the Qudud quit-smoking assistant",
		Long: `Qudud asks a few questions about your smoking habits, starts a session
with the Qudud service, and then lets you chat with the assistant.
Type 'motivation' for motivation or 'craving' for tips.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Without a terminal there is nothing to draw on; explain the line mode instead.
			if !tui.IsTTY() {
				return tui.NewFallbackRunner(cmd.OutOrStdout()).Run()
			}

			projectRoot, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			rt, err := openRuntime(projectRoot, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			return tui.Run(app.New(rt.ctrl, rt.cfg))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "Base URL of the Qudud service (overrides config and environment)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Write debug-level events to .qudud/log.jsonl")

	rootCmd.AddCommand(newChatCmd(opts))
	rootCmd.AddCommand(newInitCmd(opts))

	return rootCmd
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
