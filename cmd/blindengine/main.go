// Command blindengine runs verification sessions for blind delegated MBQC
// patterns and inspects their results.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/BlindEngine/internal/events"
	"github.com/AaronLay10/BlindEngine/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		logLevel string
		console  bool
	)
	root := &cobra.Command{
		Use:           "blindengine",
		Short:         "Verify blind delegated MBQC computations with trap rounds",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			events.SetLogger(events.NewLogger(cmd.ErrOrStderr(), console, logLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&console, "console", true, "human readable log output")

	root.AddCommand(
		newRunCmd(),
		newCanvasesCmd(),
		newReplayCmd(),
		newWatchCmd(),
	)
	return root
}
