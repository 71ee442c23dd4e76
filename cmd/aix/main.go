// Command aix runs chat generations against any supported LLM vendor from the terminal.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	profile    string
	verbose    bool
	noColor    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	ro := &rootOptions{}
	root := &cobra.Command{
		Use:           "aix",
		Short:         "Chat with LLM vendors through one normalized stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd, ro.verbose)
			if ro.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().StringVar(&ro.configPath, "config", "", "path to an aix.yaml file (default: search the usual locations)")
	root.PersistentFlags().StringVarP(&ro.profile, "profile", "p", "", "profile to use (default: the configured default)")
	root.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&ro.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newChatCmd(ro),
		newDispatchCmd(ro),
		newDialectsCmd(),
		newProfilesCmd(ro),
		newWatchCmd(ro),
	)
	return root
}

func setupLogging(cmd *cobra.Command, verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	output := zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}
