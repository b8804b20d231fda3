package cargo

import (
	"fmt"
	"strings"
)

// Stderr fragments that indicate a native dependency could not be
// located under the configured root, as opposed to a source-level
// compile failure.
var dependencyMarkers = []string{
	"could not find directory of OpenSSL",
	"could not find native static library",
	"failed to run custom build command for `openssl-sys`",
	"No package 'openssl' found",
	"is `pkg-config` installed",
	"cannot find -l",
}

// Fragments that indicate the linker itself is missing rather than the
// code failing to compile.
var toolchainMarkers = []string{
	"linker `",
	"error occurred when invoking the linker",
}

// diagnose classifies a failed driver invocation against the error
// taxonomy. The driver's stderr is carried verbatim in the message.
func diagnose(exitCode int, stderr string) error {
	for _, marker := range dependencyMarkers {
		if strings.Contains(stderr, marker) {
			return fmt.Errorf("%w: %s", ErrDependencyUnresolved, strings.TrimSpace(stderr))
		}
	}
	for _, marker := range toolchainMarkers {
		if strings.Contains(stderr, marker) && strings.Contains(stderr, "not found") {
			return fmt.Errorf("%w: %s", ErrToolchainNotFound, strings.TrimSpace(stderr))
		}
	}
	return fmt.Errorf("%w: exit code %d: %s", ErrCompile, exitCode, strings.TrimSpace(stderr))
}
