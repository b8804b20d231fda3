// Package workspace provides workspace discovery and configuration.
//
// The registry of build targets is fixed at compile time; the optional
// xbuild.yaml file at the workspace root only adjusts paths around it:
// cross toolchain locations, the OpenSSL install root, output
// directories and the extra paths removed by clean.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the workspace configuration file.
const ConfigFileName = "xbuild.yaml"

// manifestFileName marks a driver workspace root when no xbuild.yaml
// is present.
const manifestFileName = "Cargo.toml"

// Config represents the xbuild.yaml configuration file.
type Config struct {
	// Binary is the build-target name of the CLI crate, which is also
	// the file name of the produced artifact.
	Binary string `yaml:"binary"`

	// OutDir is the shared output directory for non-native artifacts,
	// relative to the workspace root.
	OutDir string `yaml:"out_dir"`

	// NativeDir is where the native artifact is installed, relative
	// to the workspace root.
	NativeDir string `yaml:"native_dir"`

	// BuildTimeout bounds a single driver invocation ("10m", "1h").
	// Empty means no limit.
	BuildTimeout string `yaml:"build_timeout,omitempty"`

	// CargoHome is the driver's user-level cache, removed only by
	// clean --deep. Empty means $CARGO_HOME or ~/.cargo.
	CargoHome string `yaml:"cargo_home,omitempty"`

	// CleanPaths are stray generated directories (example projects and
	// the like) removed by clean, relative to the workspace root.
	CleanPaths []string `yaml:"clean_paths,omitempty"`

	// Targets adjusts per-target paths.
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`
}

// TargetConfig overrides descriptor paths for one registered target.
type TargetConfig struct {
	Toolchain         string `yaml:"toolchain,omitempty"`
	OpenSSLLibDir     string `yaml:"openssl_lib_dir,omitempty"`
	OpenSSLIncludeDir string `yaml:"openssl_include_dir,omitempty"`
}

// DefaultConfig returns the configuration used when no xbuild.yaml
// exists.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads xbuild.yaml from the workspace root, falling back to
// defaults when the file does not exist.
func Load(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	return &config, nil
}

// Validate checks semantic constraints the schema cannot express.
func (c *Config) Validate() error {
	if c.Binary == "" {
		return fmt.Errorf("binary must not be empty")
	}
	if c.BuildTimeout != "" {
		if _, err := time.ParseDuration(c.BuildTimeout); err != nil {
			return fmt.Errorf("build_timeout: %w", err)
		}
	}
	for _, p := range c.CleanPaths {
		if filepath.IsAbs(p) {
			return fmt.Errorf("clean_paths entries must be workspace-relative: %s", p)
		}
	}
	return nil
}

// Timeout returns the parsed build timeout, zero when unset.
func (c *Config) Timeout() time.Duration {
	if c.BuildTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.BuildTimeout)
	if err != nil {
		return 0
	}
	return d
}

// ResolveCargoHome returns the driver cache directory for deep cleans.
func (c *Config) ResolveCargoHome() string {
	if c.CargoHome != "" {
		return c.CargoHome
	}
	if env := os.Getenv("CARGO_HOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cargo")
}

func (c *Config) applyDefaults() {
	if c.Binary == "" {
		c.Binary = "cli"
	}
	if c.OutDir == "" {
		c.OutDir = "out"
	}
	if c.NativeDir == "" {
		c.NativeDir = "."
	}
}

// FindRoot locates the workspace root by walking up from dir looking
// for xbuild.yaml or the driver manifest.
func FindRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFileName)); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, manifestFileName)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s or %s not found in current directory or any parent", ConfigFileName, manifestFileName)
}

// asJSON converts parsed YAML to JSON for schema validation.
func asJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
