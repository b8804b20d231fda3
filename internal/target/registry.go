// Package target defines the fixed registry of build targets.
//
// A target maps a logical name to the toolchain and dependency
// configuration needed to produce a release binary for one platform.
// The registry is initialized once at startup and never mutated;
// adding a platform means adding an entry to the default table.
package target

import (
	"errors"
	"fmt"
	"maps"
)

var ErrUnknownTarget = errors.New("unknown target")

// Native is the name of the target that builds for the host platform.
const Native = "native"

// Descriptor describes one build target.
type Descriptor struct {
	// Name is the logical target name used on the command line.
	Name string

	// Triple is the platform triple passed to the build driver.
	// Empty for the native target, which builds for the host implicitly.
	Triple string

	// ToolchainPath is the cross compiler/linker executable.
	// Set only for non-native targets.
	ToolchainPath string

	// ExtraEnv holds target-specific environment overrides applied on
	// top of the ambient environment when the driver runs.
	ExtraEnv map[string]string
}

// IsNative reports whether the descriptor builds for the host platform.
func (d Descriptor) IsNative() bool {
	return d.Name == Native
}

// Registry is the read-only table of registered targets.
// Declaration order is significant: RunAll builds in this order.
type Registry struct {
	targets []Descriptor
}

// Overrides adjusts descriptor paths at registry construction time.
// Zero values leave the built-in defaults untouched.
type Overrides struct {
	Toolchain         map[string]string // target name -> cross compiler path
	OpenSSLLibDir     string
	OpenSSLIncludeDir string
}

// Default returns the built-in registry: the secondary architecture
// first, then the native target.
func Default(ov Overrides) *Registry {
	libDir := ov.OpenSSLLibDir
	if libDir == "" {
		libDir = "/usr/lib/aarch64-linux-gnu"
	}
	includeDir := ov.OpenSSLIncludeDir
	if includeDir == "" {
		includeDir = "/usr/include"
	}

	aarch64 := Descriptor{
		Name:          "aarch64",
		Triple:        "aarch64-unknown-linux-gnu",
		ToolchainPath: "/usr/bin/aarch64-linux-gnu-gcc",
		ExtraEnv: map[string]string{
			"OPENSSL_STATIC":      "1",
			"OPENSSL_LIB_DIR":     libDir,
			"OPENSSL_INCLUDE_DIR": includeDir,
		},
	}
	if p, ok := ov.Toolchain["aarch64"]; ok && p != "" {
		aarch64.ToolchainPath = p
	}

	native := Descriptor{Name: Native}

	return &Registry{targets: []Descriptor{aarch64, native}}
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	for _, d := range r.targets {
		if d.Name == name {
			return d.clone(), nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownTarget, name)
}

// All returns the registered descriptors in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.targets))
	for i, d := range r.targets {
		out[i] = d.clone()
	}
	return out
}

// Names returns the registered target names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.targets))
	for i, d := range r.targets {
		names[i] = d.Name
	}
	return names
}

// clone returns a copy whose ExtraEnv map is independent of the
// registry's, so callers cannot mutate registered state.
func (d Descriptor) clone() Descriptor {
	if d.ExtraEnv != nil {
		env := make(map[string]string, len(d.ExtraEnv))
		maps.Copy(env, d.ExtraEnv)
		d.ExtraEnv = env
	}
	return d
}
