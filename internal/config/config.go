// Package config loads the electra command-line configuration from YAML
// with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/electratype/electra/renderer"
	"github.com/electratype/electra/world"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "electra.yaml"

// Today modes besides an explicit YYYY-MM-DD date.
const (
	TodayFixed  = "fixed"
	TodaySystem = "system"
)

// Config is the resolved configuration.
type Config struct {
	// Input is the document to compile.
	Input string `yaml:"input"`
	// OutputDir receives one file per page.
	OutputDir string `yaml:"output_dir"`
	// Format is svg, svgz or pdf.
	Format string      `yaml:"format"`
	Fonts  FontsConfig `yaml:"fonts"`
	// Data is a YAML or JSON file bound into ${...} placeholders.
	Data string `yaml:"data"`
	// Today is "fixed" (1970-01-01), "system" or a YYYY-MM-DD date.
	Today    string `yaml:"today"`
	LogLevel string `yaml:"log_level"`
}

// FontsConfig selects the fonts supplied to the engine.
type FontsConfig struct {
	// Paths lists font files or directories of font files.
	Paths []string `yaml:"paths"`
	// Builtin supplies the bundled Go fonts.
	Builtin bool `yaml:"builtin"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		OutputDir: "out",
		Format:    string(renderer.FormatSVG),
		Fonts:     FontsConfig{Builtin: true},
		Today:     TodayFixed,
		LogLevel:  "info",
	}
}

// Load reads path over the defaults, applies ELECTRA_* environment
// overrides and validates the result. An empty path loads DefaultFileName
// when it exists and the defaults otherwise. Relative paths inside the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg.resolve(filepath.Dir(path))
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Input = abs(c.Input)
	c.OutputDir = abs(c.OutputDir)
	c.Data = abs(c.Data)
	for i, p := range c.Fonts.Paths {
		c.Fonts.Paths[i] = abs(p)
	}
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Validate checks every field and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error
	if _, err := renderer.ParseFormat(c.Format); err != nil {
		errs = append(errs, &ValidationError{Field: "format", Value: c.Format, Message: "must be svg, svgz or pdf"})
	}
	if _, err := c.Clock(); err != nil {
		errs = append(errs, &ValidationError{Field: "today", Value: c.Today, Message: "must be fixed, system or YYYY-MM-DD"})
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Field: "log_level", Value: c.LogLevel, Message: "must be debug, info, warn or error"})
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		errs = append(errs, &ValidationError{Field: "output_dir", Value: c.OutputDir, Message: "must not be empty"})
	}
	return errors.Join(errs...)
}

// RendererFormat returns the validated export format.
func (c *Config) RendererFormat() renderer.Format {
	f, err := renderer.ParseFormat(c.Format)
	if err != nil {
		return renderer.FormatSVG
	}
	return f
}

// Clock returns the clock selected by Today.
func (c *Config) Clock() (world.Clock, error) {
	switch v := strings.TrimSpace(c.Today); strings.ToLower(v) {
	case "", TodayFixed:
		return world.FixedClock{}, nil
	case TodaySystem:
		return world.SystemClock{}, nil
	default:
		d, err := world.ParseDatetime(v)
		if err != nil {
			return nil, err
		}
		return world.NewFixedClock(d), nil
	}
}

// LoadData reads the data file. YAML is a superset of JSON, so both parse.
// It returns nil when no data file is configured.
func (c *Config) LoadData() (any, error) {
	if c.Data == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.Data)
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse data %s: %w", c.Data, err)
	}
	return data, nil
}
