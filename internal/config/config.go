// Package config loads the orchestrator's YAML configuration, with
// ${ENV_VAR} expansion applied to the raw file text before parsing.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the top-level orchestrator configuration.
type Config struct {
	DefaultProvider string            `yaml:"default_provider"`
	DefaultModel    string            `yaml:"default_model"`
	Temperature     float64           `yaml:"temperature"`
	APIKeys         map[string]string `yaml:"api_keys"`
	Workspace       WorkspaceConfig   `yaml:"workspace"`
	Autonomy        AutonomyConfig    `yaml:"autonomy"`
	Logging         LoggingConfig     `yaml:"logging"`
	SkillsDir       string            `yaml:"skills_dir"`
}

// WorkspaceConfig scopes filesystem access for memory, skills, and tools.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// AutonomyConfig controls which tool groups the security policy admits
// without an approval step.
type AutonomyConfig struct {
	Level        string   `yaml:"level"` // "minimal", "coding", "full"
	ElevatedTools []string `yaml:"elevated_tools"`
}

// LoggingConfig configures the ambient logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with the hard defaults the spec mandates when no
// file and no overrides are present.
func Default() Config {
	return Config{
		DefaultProvider: "openrouter",
		DefaultModel:    "anthropic/claude-sonnet-4",
		Temperature:     0.7,
		Autonomy:        AutonomyConfig{Level: "coding"},
		Logging:         LoggingConfig{Level: "info", Format: "json"},
	}
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

func expandEnv(raw []byte) []byte {
	return envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads and parses the YAML config at path, applying ${VAR} expansion
// first. A missing file is not an error: Load returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	expanded := expandEnv(raw)
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
