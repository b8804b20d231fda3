package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/islet-project/xbuild/internal/target"
	"github.com/islet-project/xbuild/internal/workspace"
)

var targetsCmd = &cobra.Command{
	Use:   "targets",
	Short: "List registered build targets",
	RunE:  runTargets,
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}

func runTargets(cmd *cobra.Command, args []string) error {
	// Listing works outside a workspace too; config overrides only
	// apply when one is found.
	config := workspace.DefaultConfig()
	if root, err := findWorkspaceRoot(); err == nil {
		if loaded, err := workspace.Load(root); err == nil {
			config = loaded
		}
	}

	registry := target.Default(overridesFrom(config))
	for _, d := range registry.All() {
		triple := d.Triple
		if d.IsNative() {
			triple = "host"
		}
		fmt.Printf("%-12s %s\n", d.Name, triple)
		if d.ToolchainPath != "" {
			fmt.Printf("%-12s   toolchain: %s\n", "", d.ToolchainPath)
		}
	}
	return nil
}
