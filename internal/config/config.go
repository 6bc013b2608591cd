// Package config loads the optional YAML run configuration. Flags
// override file values, file values override defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config
// flag is given. Its absence is not an error.
const DefaultFile = "build-info.yaml"

// ExtraField defines an additional record field. Value is a
// text/template body rendered with sprig functions.
type ExtraField struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Config is the runtime configuration for one invocation.
type Config struct {
	OutputPath        string       `yaml:"outputPath"`
	ManifestPath      string       `yaml:"manifestPath"`
	GitBinary         string       `yaml:"gitBinary"`
	GitTimeoutSeconds int          `yaml:"gitTimeoutSeconds"`
	ExtraFields       []ExtraField `yaml:"extraFields"`
	Policies          []string     `yaml:"policies"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		OutputPath:        "src/build.ts",
		ManifestPath:      "package.json",
		GitBinary:         "git",
		GitTimeoutSeconds: 10,
	}
}

// Load reads configuration from path. An empty path falls back to
// DefaultFile when it exists; a named path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.GitTimeoutSeconds < 0 {
		return fmt.Errorf("gitTimeoutSeconds must not be negative")
	}
	for _, extra := range c.ExtraFields {
		if extra.Key == "" {
			return fmt.Errorf("extraFields entries require a key")
		}
	}
	return nil
}
