// Package installer places built artifacts at their final locations.
package installer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/islet-project/xbuild/pkg/xos"
)

var ErrInstallIO = errors.New("install failed")

// BinaryMode is forced on every installed artifact regardless of the
// source file's mode, so installed binaries have predictable
// permissions independent of build-driver defaults.
const BinaryMode os.FileMode = 0o755

// DirMode is used when creating destination directories.
const DirMode os.FileMode = 0o755

// Install copies the artifact at src into destDir under destName and
// returns the installed path.
//
// The destination directory is created if absent, including parents.
// The copy goes through a temporary file in the destination directory
// followed by an atomic rename, so a failure mid-copy never leaves a
// truncated executable and re-running is always safe.
func Install(src, destDir, destName string) (string, error) {
	if err := xos.CreateDir(destDir, DirMode); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrInstallIO, destDir, err)
	}

	installed := filepath.Join(destDir, destName)
	if err := xos.CopyFile(src, installed, BinaryMode); err != nil {
		return "", fmt.Errorf("%w: %s -> %s: %v", ErrInstallIO, src, installed, err)
	}

	return installed, nil
}
