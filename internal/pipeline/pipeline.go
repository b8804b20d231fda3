// Package pipeline sequences the per-target build and install steps.
//
// Each target moves through compose, build and install in order. A
// failure is terminal for that target only: building all targets
// attempts every registered target and aggregates the failures, so a
// broken cross build never blocks or reverts a completed native one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/islet-project/xbuild/internal/buildenv"
	"github.com/islet-project/xbuild/internal/cargo"
	"github.com/islet-project/xbuild/internal/installer"
	"github.com/islet-project/xbuild/internal/target"
	"github.com/islet-project/xbuild/internal/workspace"
)

// State tracks a single target's progress through the pipeline.
type State int

const (
	StateIdle State = iota
	StateComposing
	StateBuilding
	StateInstalling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateBuilding:
		return "building"
	case StateInstalling:
		return "installing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Invoker runs the build driver for one target.
type Invoker interface {
	Build(ctx context.Context, triple, toolchainPath string, env []string, binary string) (string, error)
}

// InstallFunc places a built artifact at its final location.
type InstallFunc func(src, destDir, destName string) (string, error)

// Result is the transient outcome of one target's pipeline run.
type Result struct {
	Target    string
	State     State
	Artifact  string // where the driver deposited the binary
	Installed string // final location after installation
	Err       error
}

// Pipeline drives the build and install steps for registered targets.
type Pipeline struct {
	registry      *target.Registry
	invoker       Invoker
	install       InstallFunc
	workspaceRoot string
	config        *workspace.Config

	// Ambient environment snapshot taken at construction; composition
	// never reads the live process environment.
	ambient []string

	// OnTargetStart, when set, is called before each target's run.
	OnTargetStart func(name string)
}

// New creates a pipeline over the given registry and collaborators.
func New(registry *target.Registry, invoker Invoker, root string, config *workspace.Config) *Pipeline {
	return &Pipeline{
		registry:      registry,
		invoker:       invoker,
		install:       installer.Install,
		workspaceRoot: root,
		config:        config,
		ambient:       os.Environ(),
	}
}

// WithInstaller replaces the install step, used by tests.
func (p *Pipeline) WithInstaller(fn InstallFunc) *Pipeline {
	p.install = fn
	return p
}

// WithAmbient replaces the ambient environment snapshot, used by tests.
func (p *Pipeline) WithAmbient(environ []string) *Pipeline {
	p.ambient = environ
	return p
}

// Run executes the pipeline for one named target.
func (p *Pipeline) Run(ctx context.Context, name string) Result {
	result := Result{Target: name, State: StateIdle}

	desc, err := p.registry.Lookup(name)
	if err != nil {
		return result.fail(err)
	}

	slog.Info("building target", "target", desc.Name, "triple", desc.Triple)

	result.State = StateComposing
	env, err := buildenv.Compose(p.ambient, desc)
	if err != nil {
		return result.fail(err)
	}

	result.State = StateBuilding
	artifact, err := p.invoker.Build(ctx, desc.Triple, desc.ToolchainPath, buildenv.Environ(env), p.config.Binary)
	if err != nil {
		return result.fail(err)
	}
	result.Artifact = artifact

	result.State = StateInstalling
	installed, err := p.install(artifact, p.destDir(desc), p.config.Binary)
	if err != nil {
		return result.fail(err)
	}
	result.Installed = installed

	result.State = StateDone
	slog.Info("target installed", "target", desc.Name, "path", installed)
	return result
}

// RunAll executes the pipeline for every registered target in
// declaration order. All targets are attempted; the returned error
// aggregates the failures, each with target-name context.
func (p *Pipeline) RunAll(ctx context.Context) ([]Result, error) {
	var results []Result
	var failures []error

	for _, name := range p.registry.Names() {
		if p.OnTargetStart != nil {
			p.OnTargetStart(name)
		}
		result := p.Run(ctx, name)
		results = append(results, result)
		if result.Err != nil {
			failures = append(failures, fmt.Errorf("target=%s: %w", name, result.Err))
		}
	}

	return results, errors.Join(failures...)
}

// Clean removes the driver-managed output tree, the shared output
// directory and any configured stray generated directories. Absent
// paths are not an error, so clean is idempotent.
func (p *Pipeline) Clean() error {
	paths := []string{
		cargo.TargetDir(p.workspaceRoot),
		filepath.Join(p.workspaceRoot, p.config.OutDir),
	}
	for _, rel := range p.config.CleanPaths {
		paths = append(paths, filepath.Join(p.workspaceRoot, rel))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		slog.Info("removing", "path", path)
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}

	return nil
}

// destDir returns the install destination for a target: the shared
// output directory keyed by target name for cross builds, the in-tree
// native directory for the host build.
func (p *Pipeline) destDir(desc target.Descriptor) string {
	if desc.IsNative() {
		return filepath.Join(p.workspaceRoot, p.config.NativeDir)
	}
	return filepath.Join(p.workspaceRoot, p.config.OutDir, desc.Name)
}

func (r Result) fail(err error) Result {
	r.State = StateFailed
	r.Err = err
	slog.Error("target failed", "target", r.Target, "error", err)
	return r
}
