package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// envVarPrefix is the prefix for all electra environment variables.
const envVarPrefix = "ELECTRA_"

// envSetters maps variable names (without prefix) to config fields.
var envSetters = map[string]func(*Config, string) error{
	"INPUT":      func(c *Config, v string) error { c.Input = v; return nil },
	"OUTPUT_DIR": func(c *Config, v string) error { c.OutputDir = v; return nil },
	"FORMAT":     func(c *Config, v string) error { c.Format = v; return nil },
	"DATA":       func(c *Config, v string) error { c.Data = v; return nil },
	"TODAY":      func(c *Config, v string) error { c.Today = v; return nil },
	"LOG_LEVEL":  func(c *Config, v string) error { c.LogLevel = v; return nil },
	"FONT_PATHS": func(c *Config, v string) error {
		c.Fonts.Paths = strings.Split(v, string(os.PathListSeparator))
		return nil
	},
	"BUILTIN_FONTS": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean for %sBUILTIN_FONTS: %q", envVarPrefix, v)
		}
		c.Fonts.Builtin = b
		return nil
	},
}

// LoadFromEnv applies ELECTRA_* overrides; unset and empty variables are
// ignored.
func LoadFromEnv(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	for suffix, set := range envSetters {
		value := os.Getenv(envVarPrefix + suffix)
		if value == "" {
			continue
		}
		if err := set(cfg, value); err != nil {
			return err
		}
	}
	return nil
}
