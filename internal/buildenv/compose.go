// Package buildenv composes the process environment for a build
// driver invocation.
//
// Composition starts from an ambient environment snapshot, overlays the
// target's extra variables, and injects the cross toolchain variables
// the driver uses to locate a C compiler and linker for interop code.
// The ambient environment is treated as input and never mutated.
package buildenv

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/islet-project/xbuild/internal/target"
)

var ErrIncompleteEnvironment = errors.New("incomplete build environment")

// Compose returns the full environment for building the given target.
//
// ambient is a snapshot in "key=value" form, typically os.Environ().
// Extra variables win on key collision. Any extra variable whose value
// is an absolute filesystem path must exist on disk; missing paths fail
// here rather than surfacing later as an opaque compiler error.
func Compose(ambient []string, d target.Descriptor) (map[string]string, error) {
	env := parse(ambient)

	for key, value := range d.ExtraEnv {
		if filepath.IsAbs(value) {
			if _, err := os.Stat(value); err != nil {
				return nil, fmt.Errorf("%w: target %s: %s=%s: %v",
					ErrIncompleteEnvironment, d.Name, key, value, err)
			}
		}
	}
	maps.Copy(env, d.ExtraEnv)

	if d.ToolchainPath != "" {
		env[ccVar(d.Triple)] = d.ToolchainPath
		env[linkerVar(d.Triple)] = d.ToolchainPath
	}

	return env, nil
}

// Environ flattens a composed environment into sorted "key=value" form
// suitable for passing to an external process. Sorting keeps the result
// deterministic for identical inputs.
func Environ(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// ccVar names the variable the driver's C interop layer reads to find
// the cross compiler, e.g. CC_aarch64_unknown_linux_gnu.
func ccVar(triple string) string {
	return "CC_" + strings.ReplaceAll(triple, "-", "_")
}

// linkerVar names the driver's per-target linker override, e.g.
// CARGO_TARGET_AARCH64_UNKNOWN_LINUX_GNU_LINKER.
func linkerVar(triple string) string {
	t := strings.ToUpper(strings.ReplaceAll(triple, "-", "_"))
	return "CARGO_TARGET_" + t + "_LINKER"
}

func parse(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
