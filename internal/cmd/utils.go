package cmd

import (
	"fmt"
	"os"

	"github.com/islet-project/xbuild/internal/cargo"
	"github.com/islet-project/xbuild/internal/pipeline"
	"github.com/islet-project/xbuild/internal/target"
	"github.com/islet-project/xbuild/internal/workspace"
)

// newPipeline wires the registry, executor and installer for the
// workspace containing the current directory.
func newPipeline(verbose bool) (*pipeline.Pipeline, *workspace.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	root, err := workspace.FindRoot(cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("not in a build workspace: %w", err)
	}

	config, err := workspace.Load(root)
	if err != nil {
		return nil, nil, err
	}

	registry := target.Default(overridesFrom(config))

	executor, err := cargo.NewExecutor(root, verbose, cargo.WithTimeout(config.Timeout()))
	if err != nil {
		return nil, nil, err
	}

	return pipeline.New(registry, executor, root, config), config, nil
}

// newCleanPipeline wires a pipeline without a build executor, so clean
// works even when the driver is not installed.
func newCleanPipeline() (*pipeline.Pipeline, *workspace.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	root, err := workspace.FindRoot(cwd)
	if err != nil {
		return nil, nil, fmt.Errorf("not in a build workspace: %w", err)
	}

	config, err := workspace.Load(root)
	if err != nil {
		return nil, nil, err
	}

	registry := target.Default(overridesFrom(config))
	return pipeline.New(registry, nil, root, config), config, nil
}

// findWorkspaceRoot resolves the workspace root from the current
// directory.
func findWorkspaceRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return workspace.FindRoot(cwd)
}

// overridesFrom maps configured path adjustments onto the registry.
func overridesFrom(config *workspace.Config) target.Overrides {
	ov := target.Overrides{Toolchain: make(map[string]string)}
	for name, tc := range config.Targets {
		if tc.Toolchain != "" {
			ov.Toolchain[name] = tc.Toolchain
		}
		if tc.OpenSSLLibDir != "" {
			ov.OpenSSLLibDir = tc.OpenSSLLibDir
		}
		if tc.OpenSSLIncludeDir != "" {
			ov.OpenSSLIncludeDir = tc.OpenSSLIncludeDir
		}
	}
	return ov
}
