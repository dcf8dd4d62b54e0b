// Package config loads kotc.yaml, the per-project build settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"kotc/pkg/compiler"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "kotc.yaml"

// Config is the root YAML structure.
type Config struct {
	Target      TargetConfig      `yaml:"target"`
	Toolchain   ToolchainConfig   `yaml:"toolchain"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// TargetConfig selects the platform preset and overrides parts of it.
type TargetConfig struct {
	OS        string `yaml:"os"`                   // linux, darwin
	Entry     string `yaml:"entry,omitempty"`      // entry symbol, preset default when empty
	StackSize int    `yaml:"stack_size,omitempty"` // bytes reserved by the prologue
}

// ToolchainConfig names the external programs used by `kotc build --link`.
type ToolchainConfig struct {
	Assembler string   `yaml:"assembler"`
	Linker    string   `yaml:"linker"`
	LinkFlags []string `yaml:"link_flags,omitempty"`
	Runtime   string   `yaml:"runtime,omitempty"` // extra object passed to the linker
}

// DiagnosticsConfig controls how compile errors are printed.
type DiagnosticsConfig struct {
	Color string `yaml:"color"` // auto, always, never
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Target: TargetConfig{
			OS:        compiler.LinuxAMD64.Name,
			StackSize: compiler.LinuxAMD64.StackSize,
		},
		Toolchain: ToolchainConfig{
			Assembler: "as",
			Linker:    "ld",
		},
		Diagnostics: DiagnosticsConfig{Color: "auto"},
	}
}

// Parse decodes data on top of the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads dir/kotc.yaml, falling back to the defaults when the file
// does not exist.
func Discover(dir string) (Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

func (c Config) Validate() error {
	if _, err := compiler.TargetFor(c.Target.OS); err != nil {
		return err
	}
	switch c.Diagnostics.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("diagnostics.color must be auto, always or never, got %q", c.Diagnostics.Color)
	}
	if c.Toolchain.Assembler == "" || c.Toolchain.Linker == "" {
		return fmt.Errorf("toolchain.assembler and toolchain.linker must be set")
	}
	_, err := c.ToTarget()
	return err
}

// ToTarget resolves the preset for Target.OS and applies the overrides.
func (c Config) ToTarget() (compiler.Target, error) {
	t, err := compiler.TargetFor(c.Target.OS)
	if err != nil {
		return compiler.Target{}, err
	}
	if c.Target.Entry != "" {
		t.Entry = c.Target.Entry
	}
	if c.Target.StackSize != 0 {
		t.StackSize = c.Target.StackSize
	}
	if err := t.Validate(); err != nil {
		return compiler.Target{}, err
	}
	return t, nil
}
