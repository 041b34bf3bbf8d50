// Package config loads extractor settings from an optional YAML file,
// with flags and environment variables taking precedence at the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ruppin/TheMatrix/internal/labels"
)

// DefaultFileName is searched for by Discover, walking up from the
// working directory.
const DefaultFileName = ".neo.yml"

// EnvConfig overrides the discovery walk entirely.
const EnvConfig = "NEO_CONFIG"

// Config is the file-level configuration shape.
type Config struct {
	GitLab struct {
		URL              string `yaml:"url"`
		TimeoutSeconds   int    `yaml:"timeout_seconds"`
		RateLimitDelayMS int    `yaml:"rate_limit_delay_ms"`
		MaxRetries       int    `yaml:"max_retries"`
	} `yaml:"gitlab"`
	DB            string           `yaml:"db"`
	LabelPatterns []labels.Pattern `yaml:"label_patterns"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var c Config
	c.GitLab.URL = "https://gitlab.com"
	c.GitLab.TimeoutSeconds = 30
	c.GitLab.RateLimitDelayMS = 500
	c.GitLab.MaxRetries = 3
	c.DB = "hierarchy.db"
	return c
}

// Load reads and validates a config file, layered over Default.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if c.GitLab.URL == "" {
		return c, fmt.Errorf("config %s: gitlab.url must not be empty", path)
	}
	for _, p := range c.LabelPatterns {
		if p.Prefix == "" || p.Column == "" {
			return c, fmt.Errorf("config %s: label patterns need both prefix and column", path)
		}
	}
	return c, nil
}

// Discover finds and loads a config file using priority: env > explicit
// path > walk-up from CWD. A missing file is not an error; defaults apply.
func Discover(explicit string) (Config, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		return Load(envPath)
	}
	if explicit != "" {
		return Load(explicit)
	}

	dir, err := os.Getwd()
	if err != nil {
		return Default(), nil
	}
	for {
		candidate := filepath.Join(dir, DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return Default(), nil
}
