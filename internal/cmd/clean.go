package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var cleanDeep bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build output and generated directories",
	Long: `Remove the driver-managed output tree, the shared install directory
and any stray generated example directories.

Clean is idempotent: paths that do not exist are skipped. Use --deep to
also remove the driver's user-level cache after confirmation.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&cleanDeep, "deep", false, "Also remove the driver's user-level cache (requires confirmation)")
}

func runClean(cmd *cobra.Command, args []string) error {
	p, config, err := newCleanPipeline()
	if err != nil {
		return err
	}

	if err := p.Clean(); err != nil {
		return err
	}

	if cleanDeep {
		cargoHome := config.ResolveCargoHome()
		if cargoHome == "" {
			return fmt.Errorf("driver cache location unknown; set cargo_home in xbuild.yaml")
		}

		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Remove driver cache %s? Future builds will re-download dependencies", cargoHome),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				fmt.Println("Cancelled.")
				return nil
			}
			return err
		}

		if err := os.RemoveAll(cargoHome); err != nil {
			return fmt.Errorf("failed to remove %s: %w", cargoHome, err)
		}
	}

	fmt.Println("Clean completed")
	return nil
}
