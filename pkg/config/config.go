// Package config loads runtime settings for logging and allocation
// accounting from a TOML or YAML file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	Ledger LedgerConfig `toml:"ledger" yaml:"ledger"`
}

// LogConfig selects the zap logger.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"` // json or console
	File   string `toml:"file" yaml:"file"`     // empty means stderr
}

// LedgerConfig controls allocation accounting.
type LedgerConfig struct {
	Enabled    bool `toml:"enabled" yaml:"enabled"`
	FailOnLeak bool `toml:"fail-on-leak" yaml:"fail-on-leak"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Ledger: LedgerConfig{
			Enabled: true,
		},
	}
}

// Load reads path over the defaults. The decoder is picked by extension:
// .toml, or .yaml/.yml.
func Load(path string) (Config, error) {
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errors.Annotatef(err, "load config %s", path)
		}
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Trace(err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, errors.Annotatef(err, "load config %s", path)
		}
	default:
		return Config{}, errors.Errorf("load config %s: unsupported extension %q", path, ext)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("invalid log level %q", c.Log.Level)
	}
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}
