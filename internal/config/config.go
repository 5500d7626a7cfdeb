// Package config loads settings for the nrbf command line tool.
//
// Settings come from a single file named by the --config flag or the
// NRBF_CONFIG environment variable. Files ending in .json or .jsonc are
// read as JSON with comments and trailing commas; anything else is YAML.
// Command line flags override file values.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/nrbf/errors"
	"github.com/wippyai/nrbf/format"
	"github.com/wippyai/nrbf/internal/payload"
)

// EnvVar names the environment variable consulted when no path is given.
const EnvVar = "NRBF_CONFIG"

// Output formats.
var Formats = []string{"text", "json", "yaml", "cbor"}

// Color modes.
var ColorModes = []string{"auto", "always", "never"}

// Config is the tool configuration.
type Config struct {
	// Decompress is none, zstd, lz4 or auto.
	Decompress string `yaml:"decompress" json:"decompress"`

	// MaxDepth bounds record nesting. Zero keeps the library default.
	MaxDepth int `yaml:"max_depth" json:"max_depth"`

	// MaxElements bounds member and element slots across the stream.
	MaxElements int `yaml:"max_elements" json:"max_elements"`

	// Format is the inspect output format.
	Format string `yaml:"format" json:"format"`

	// Color controls syntax highlighting of JSON output.
	Color string `yaml:"color" json:"color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Decompress: string(payload.Auto),
		Format:     "text",
		Color:      "auto",
	}
}

// Load reads the file at path, or at $NRBF_CONFIG when path is empty.
// With neither set it returns Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a configuration file over the defaults and validates it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Detail("read %s", path).Cause(err).Build()
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults. ext selects the syntax: ".json"
// and ".jsonc" are JSONC, anything else YAML.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	var err error
	switch ext {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Detail("parse configuration").Cause(err).Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and bounds.
func (c *Config) Validate() error {
	if _, err := payload.ParseCompression(c.Decompress); err != nil {
		return err
	}
	if c.MaxDepth < 0 || c.MaxElements < 0 {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("max_depth and max_elements must not be negative").Build()
	}
	if !slices.Contains(Formats, c.Format) {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown format %q", c.Format).Value(c.Format).Build()
	}
	if !slices.Contains(ColorModes, c.Color) {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Detail("unknown color mode %q", c.Color).Value(c.Color).Build()
	}
	return nil
}

// Compression returns the parsed decompress setting.
func (c *Config) Compression() payload.Compression {
	comp, _ := payload.ParseCompression(c.Decompress)
	return comp
}

// DecodeOptions returns the parser limits. Zero fields keep the library
// defaults.
func (c *Config) DecodeOptions() format.DecodeOptions {
	return format.DecodeOptions{
		MaxDepth:    c.MaxDepth,
		MaxElements: c.MaxElements,
	}
}
