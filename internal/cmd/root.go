package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "xbuild",
	Short: "xbuild - multi-target release builds for the SDK command-line tool",
	Long: `xbuild orchestrates release builds of the command-line tool that links
against the islet_sdk native library.

For each target it composes the cross toolchain and dependency environment,
drives the release build, and installs the produced binary with normalized
permissions into its output location.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI under a cancellable context so an
// interrupt terminates a running driver invocation cleanly.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
