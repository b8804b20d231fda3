package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var buildAllVerbose bool

var buildAllCmd = &cobra.Command{
	Use:   "build-all",
	Short: "Build and install every registered target",
	Long: `Build the release binary for every registered target in declaration
order: the secondary architecture first, then native.

All targets are attempted even when one fails, so a single broken cross
build still leaves the other artifacts installed. The command exits
non-zero if any target failed.`,
	RunE: runBuildAll,
}

func init() {
	rootCmd.AddCommand(buildAllCmd)
	buildAllCmd.Flags().BoolVarP(&buildAllVerbose, "verbose", "v", false, "Stream driver output")
}

func runBuildAll(cmd *cobra.Command, args []string) error {
	p, _, err := newPipeline(buildAllVerbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var bar *progressbar.ProgressBar
	if !buildAllVerbose {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(os.Stderr, "\n")
			}),
		)
		p.OnTargetStart = func(name string) {
			bar.Describe(fmt.Sprintf("building %s", name))
		}
	}

	results, err := p.RunAll(ctx)
	if bar != nil {
		bar.Finish()
	}

	for _, result := range results {
		if result.Err != nil {
			fmt.Printf("FAIL %s: %v\n", result.Target, result.Err)
		} else {
			fmt.Printf("ok   %s -> %s\n", result.Target, result.Installed)
		}
	}

	if err != nil {
		return fmt.Errorf("build-all failed")
	}

	fmt.Println("All targets built")
	return nil
}
