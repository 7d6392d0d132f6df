// Package config loads the optional qmldoc configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the scanned root.
const FileName = ".qmldoc.yaml"

// Defaults.
const (
	DefaultMaxDepth    = 4096
	DefaultMaxFileSize = 1_000_000 // 1 MB
	DefaultFormat      = "toon"
)

// Config holds the settings of a run. Zero values mean "use the default".
type Config struct {
	MaxDepth          int      `yaml:"max_depth"`
	Workers           int      `yaml:"workers"`
	MaxFileSize       int      `yaml:"max_file_size"`
	Format            string   `yaml:"format"`
	ExtraMetacommands []string `yaml:"extra_metacommands"`
	Enums             []string `yaml:"enums"`
	Exclude           []string `yaml:"exclude"`
	IncludeTests      bool     `yaml:"include_tests"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		MaxDepth:    DefaultMaxDepth,
		Workers:     runtime.GOMAXPROCS(0),
		MaxFileSize: DefaultMaxFileSize,
		Format:      DefaultFormat,
	}
}

// Load reads the file at path on top of the defaults. A missing file is not
// an error when required is false.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings and fills zero values with defaults.
func (c *Config) Validate() error {
	d := Default()
	if c.MaxDepth == 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.Workers == 0 {
		c.Workers = d.Workers
	}
	if c.MaxFileSize == 0 {
		c.MaxFileSize = d.MaxFileSize
	}
	if c.Format == "" {
		c.Format = d.Format
	}

	switch {
	case c.MaxDepth < 0:
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	case c.Workers < 0:
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	case c.MaxFileSize < 0:
		return fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize)
	case c.Format != "toon" && c.Format != "yaml":
		return fmt.Errorf("unsupported format %q (want toon or yaml)", c.Format)
	}
	return nil
}
