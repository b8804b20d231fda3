package installer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSource(t *testing.T, content string, perm os.FileMode) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), "cli")
	if err := os.WriteFile(src, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
	return src
}

func TestInstallCreatesDestDir(t *testing.T) {
	src := writeSource(t, "binary", 0o644)
	destDir := filepath.Join(t.TempDir(), "out", "aarch64")

	installed, err := Install(src, destDir, "cli")
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}
	if installed != filepath.Join(destDir, "cli") {
		t.Fatalf("installed = %q", installed)
	}

	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("reading installed file: %v", err)
	}
	if string(data) != "binary" {
		t.Fatalf("content = %q", data)
	}
}

func TestInstallNormalizesPermissions(t *testing.T) {
	// Source deliberately non-executable; the installed copy must
	// still come out 0755.
	src := writeSource(t, "binary", 0o600)

	installed, err := Install(src, t.TempDir(), "cli")
	if err != nil {
		t.Fatalf("Install error: %v", err)
	}

	info, err := os.Stat(installed)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != BinaryMode {
		t.Fatalf("mode = %o, want %o", info.Mode().Perm(), BinaryMode)
	}
}

func TestInstallIdempotent(t *testing.T) {
	src := writeSource(t, "v1", 0o755)
	destDir := t.TempDir()

	first, err := Install(src, destDir, "cli")
	if err != nil {
		t.Fatalf("first install: %v", err)
	}
	second, err := Install(src, destDir, "cli")
	if err != nil {
		t.Fatalf("second install: %v", err)
	}
	if first != second {
		t.Fatalf("paths differ: %q vs %q", first, second)
	}

	info, err := os.Stat(second)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != BinaryMode {
		t.Fatalf("mode = %o after reinstall", info.Mode().Perm())
	}
}

func TestInstallOverwrites(t *testing.T) {
	destDir := t.TempDir()

	src1 := writeSource(t, "old", 0o755)
	if _, err := Install(src1, destDir, "cli"); err != nil {
		t.Fatalf("install old: %v", err)
	}

	src2 := writeSource(t, "new", 0o755)
	installed, err := Install(src2, destDir, "cli")
	if err != nil {
		t.Fatalf("install new: %v", err)
	}

	data, _ := os.ReadFile(installed)
	if string(data) != "new" {
		t.Fatalf("content = %q, want new", data)
	}
}

func TestInstallMissingSource(t *testing.T) {
	_, err := Install(filepath.Join(t.TempDir(), "nope"), t.TempDir(), "cli")
	if !errors.Is(err, ErrInstallIO) {
		t.Fatalf("error = %v, want ErrInstallIO", err)
	}
}

func TestInstallFailureKeepsPrevious(t *testing.T) {
	destDir := t.TempDir()

	src := writeSource(t, "good", 0o755)
	installed, err := Install(src, destDir, "cli")
	if err != nil {
		t.Fatalf("install: %v", err)
	}

	// A failed install (missing source) must leave the previous
	// binary untouched.
	if _, err := Install(filepath.Join(t.TempDir(), "nope"), destDir, "cli"); err == nil {
		t.Fatal("expected install failure")
	}

	data, err := os.ReadFile(installed)
	if err != nil {
		t.Fatalf("previous install gone: %v", err)
	}
	if string(data) != "good" {
		t.Fatalf("previous install corrupted: %q", data)
	}

	// No stray temp files either.
	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("dest dir entries = %d, want 1", len(entries))
	}
}
