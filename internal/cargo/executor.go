// Package cargo drives release builds through the cargo build driver.
package cargo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

var (
	ErrToolchainNotFound    = errors.New("cross toolchain not found")
	ErrCompile              = errors.New("build failed")
	ErrDependencyUnresolved = errors.New("native dependency unresolved")
)

// Command describes one driver invocation.
type Command struct {
	Path   string
	Args   []string
	Env    []string
	Dir    string
	Stdout io.Writer // optional stream for verbose output
	Stderr io.Writer
}

// Result carries the outcome of a driver invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner is the process boundary. The default implementation shells
// out; tests substitute a fake so no real toolchain is needed.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Executor invokes the build driver for one target at a time.
type Executor struct {
	workspaceRoot string
	cargoPath     string
	verbose       bool
	timeout       time.Duration
	runner        Runner
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunner replaces the process runner, used by tests.
func WithRunner(r Runner) Option {
	return func(e *Executor) { e.runner = r }
}

// WithTimeout bounds a single driver invocation. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

// NewExecutor creates an executor rooted at the workspace directory.
func NewExecutor(workspaceRoot string, verbose bool, opts ...Option) (*Executor, error) {
	e := &Executor{
		workspaceRoot: workspaceRoot,
		verbose:       verbose,
		runner:        execRunner{},
	}
	for _, opt := range opts {
		opt(e)
	}

	// Only resolve the real driver when actually shelling out.
	if _, shellsOut := e.runner.(execRunner); shellsOut {
		path, err := exec.LookPath("cargo")
		if err != nil {
			return nil, fmt.Errorf("cargo not found in PATH: %w", err)
		}
		e.cargoPath = path
	} else {
		e.cargoPath = "cargo"
	}

	return e, nil
}

// Build runs a release build for the descriptor's triple under the
// composed environment and returns the artifact path the driver wrote.
//
// The driver's diagnostics are passed through verbatim; the executor
// only classifies them against the error taxonomy.
func (e *Executor) Build(ctx context.Context, triple, toolchainPath string, env []string, binary string) (string, error) {
	if toolchainPath != "" {
		if err := checkExecutable(toolchainPath); err != nil {
			return "", err
		}
	}

	args := []string{"build", "--release"}
	if triple != "" {
		args = append(args, "--target", triple)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := Command{
		Path: e.cargoPath,
		Args: args,
		Env:  env,
		Dir:  e.workspaceRoot,
	}
	if e.verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	result, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompile, err)
	}
	if result.ExitCode != 0 {
		return "", diagnose(result.ExitCode, result.Stderr)
	}

	return ArtifactPath(e.workspaceRoot, triple, binary), nil
}

// ArtifactPath returns where the driver deposits the release binary for
// a triple: <workspace>/target/<triple>/release/<binary>, with the
// triple segment omitted for host builds.
func ArtifactPath(workspaceRoot, triple, binary string) string {
	if triple == "" {
		return filepath.Join(workspaceRoot, "target", "release", binary)
	}
	return filepath.Join(workspaceRoot, "target", triple, "release", binary)
}

// TargetDir returns the driver-managed output tree for the workspace.
func TargetDir(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, "target")
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrToolchainNotFound, path, err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s is not executable", ErrToolchainNotFound, path)
	}
	return nil
}

// execRunner shells out to the real driver.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdout != nil {
		c.Stdout = io.MultiWriter(&stdout, cmd.Stdout)
	}
	if cmd.Stderr != nil {
		c.Stderr = io.MultiWriter(&stderr, cmd.Stderr)
	}

	err := c.Run()
	result := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Non-zero exit is reported through ExitCode, not err.
		return result, nil
	}
	if ctx.Err() != nil {
		return result, fmt.Errorf("driver terminated: %w", ctx.Err())
	}
	return result, err
}
