package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/islet-project/xbuild/internal/pipeline"
	"github.com/islet-project/xbuild/internal/watcher"
)

// buildRunner is the slice of the pipeline the build command needs.
type buildRunner interface {
	Run(ctx context.Context, name string) pipeline.Result
}

var (
	buildVerbose bool
	buildWatch   bool
)

var buildCmd = &cobra.Command{
	Use:   "build <target>",
	Short: "Build and install one target",
	Long: `Build the release binary for a single named target and install it.

The secondary-architecture target runs the driver under the cross
toolchain with static OpenSSL linking; the native target builds for the
host. Use 'xbuild targets' to list registered targets.

Examples:
  xbuild build native             # Host build, installed in-tree
  xbuild build aarch64            # Cross build, installed under out/
  xbuild build aarch64 --watch    # Rebuild on source changes
  xbuild build native --verbose   # Stream driver output`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "Stream driver output")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "Rebuild when workspace sources change")
}

func runBuild(cmd *cobra.Command, args []string) error {
	name := args[0]

	p, _, err := newPipeline(buildVerbose)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if buildWatch {
		return watchAndBuild(ctx, p, name)
	}

	return buildOnce(ctx, p, name)
}

func buildOnce(ctx context.Context, p buildRunner, name string) error {
	fmt.Printf("Building target %s...\n", name)

	result := p.Run(ctx, name)
	if result.Err != nil {
		return fmt.Errorf("target=%s: %w", name, result.Err)
	}

	fmt.Printf("Installed %s\n", result.Installed)
	return nil
}

// watchAndBuild runs an initial build, then rebuilds on every
// debounced source change until the context is cancelled. A failing
// rebuild is reported and the loop continues.
func watchAndBuild(ctx context.Context, p buildRunner, name string) error {
	root, err := findWorkspaceRoot()
	if err != nil {
		return err
	}

	w, err := watcher.New(watcher.DefaultConfig(root))
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	if err := buildOnce(ctx, p, name); err != nil {
		fmt.Printf("Build failed: %v\n", err)
	}
	fmt.Println("Watching for changes (ctrl-c to stop)...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			return fmt.Errorf("watch error: %w", err)
		case path := <-w.Events():
			fmt.Printf("Change detected: %s\n", path)
			if err := buildOnce(ctx, p, name); err != nil {
				fmt.Printf("Build failed: %v\n", err)
			}
		}
	}
}
