//go:build !windows
// +build !windows

// Package xos provides cross-platform atomic file operations.
// It uses atomic rename operations to prevent file corruption on crashes.
package xos

import (
	"io"
	"os"

	"github.com/google/renameio/v2"
)

// WriteFile writes data to the named file atomically using rename.
// If the file does not exist, WriteFile creates it with permissions perm;
// otherwise WriteFile truncates it before writing.
func WriteFile(filename string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(filename, data, perm)
}

// WriteReader writes data from a reader to the named file atomically.
// The temporary file lives next to the target so the final rename never
// crosses a filesystem boundary.
func WriteReader(filename string, r io.Reader, perm os.FileMode) error {
	t, err := renameio.TempFile("", filename)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if _, err := io.Copy(t, r); err != nil {
		return err
	}

	if err := t.Chmod(perm); err != nil {
		return err
	}

	return t.CloseAtomicallyReplace()
}

// CopyFile copies a file atomically by streaming through a temp file
// and renaming it over the destination.
func CopyFile(src, dst string, perm os.FileMode) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	return WriteReader(dst, f, perm)
}

// CreateDir creates a directory and all necessary parents.
func CreateDir(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
