package buildenv

import (
	"errors"
	"reflect"
	"testing"

	"github.com/islet-project/xbuild/internal/target"
)

func TestComposeNative(t *testing.T) {
	ambient := []string{"PATH=/usr/bin", "HOME=/home/dev"}

	env, err := Compose(ambient, target.Descriptor{Name: target.Native})
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if env["PATH"] != "/usr/bin" || env["HOME"] != "/home/dev" {
		t.Fatalf("ambient not preserved: %v", env)
	}
	if len(env) != 2 {
		t.Fatalf("env = %v, want ambient only", env)
	}
}

func TestComposeOverlayWins(t *testing.T) {
	dir := t.TempDir()
	d := target.Descriptor{
		Name:     "aarch64",
		Triple:   "aarch64-unknown-linux-gnu",
		ExtraEnv: map[string]string{"OPENSSL_LIB_DIR": dir, "OPENSSL_STATIC": "1"},
	}

	env, err := Compose([]string{"OPENSSL_STATIC=0", "PATH=/usr/bin"}, d)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if env["OPENSSL_STATIC"] != "1" {
		t.Fatalf("OPENSSL_STATIC = %q, want extra env to override ambient", env["OPENSSL_STATIC"])
	}
	if env["OPENSSL_LIB_DIR"] != dir {
		t.Fatalf("OPENSSL_LIB_DIR = %q", env["OPENSSL_LIB_DIR"])
	}
}

func TestComposeToolchainInjection(t *testing.T) {
	d := target.Descriptor{
		Name:          "aarch64",
		Triple:        "aarch64-unknown-linux-gnu",
		ToolchainPath: "/tools/cc",
	}

	env, err := Compose(nil, d)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if env["CC_aarch64_unknown_linux_gnu"] != "/tools/cc" {
		t.Fatalf("CC var = %q", env["CC_aarch64_unknown_linux_gnu"])
	}
	if env["CARGO_TARGET_AARCH64_UNKNOWN_LINUX_GNU_LINKER"] != "/tools/cc" {
		t.Fatalf("linker var = %q", env["CARGO_TARGET_AARCH64_UNKNOWN_LINUX_GNU_LINKER"])
	}
}

func TestComposeMissingPath(t *testing.T) {
	d := target.Descriptor{
		Name:     "aarch64",
		ExtraEnv: map[string]string{"OPENSSL_LIB_DIR": "/does/not/exist"},
	}

	_, err := Compose(nil, d)
	if !errors.Is(err, ErrIncompleteEnvironment) {
		t.Fatalf("error = %v, want ErrIncompleteEnvironment", err)
	}
}

func TestComposeDeterministic(t *testing.T) {
	dir := t.TempDir()
	ambient := []string{"PATH=/usr/bin", "B=2", "A=1"}
	d := target.Descriptor{
		Name:          "aarch64",
		Triple:        "aarch64-unknown-linux-gnu",
		ToolchainPath: "/tools/cc",
		ExtraEnv:      map[string]string{"OPENSSL_LIB_DIR": dir},
	}

	first, err := Compose(ambient, d)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	second, err := Compose(ambient, d)
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Compose not deterministic:\n%v\n%v", first, second)
	}
	if !reflect.DeepEqual(Environ(first), Environ(second)) {
		t.Fatal("Environ not deterministic")
	}
}

func TestComposeDoesNotMutateAmbient(t *testing.T) {
	ambient := []string{"OPENSSL_STATIC=0"}
	d := target.Descriptor{
		Name:     "aarch64",
		ExtraEnv: map[string]string{"OPENSSL_STATIC": "1"},
	}

	if _, err := Compose(ambient, d); err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if ambient[0] != "OPENSSL_STATIC=0" {
		t.Fatalf("ambient mutated: %v", ambient)
	}
}

func TestEnvironSorted(t *testing.T) {
	got := Environ(map[string]string{"B": "2", "A": "1", "C": "3"})
	want := []string{"A=1", "B=2", "C=3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Environ = %v, want %v", got, want)
	}
}
