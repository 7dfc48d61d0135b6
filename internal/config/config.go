// Package config layers defaults, an optional YAML file and SCHEMACONV_*
// environment variables. Command-line flags are applied last by the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is named explicitly
const DefaultPath = ".schemaconv.yaml"

// Config holds the settings shared by every command
type Config struct {
	From        string       `yaml:"from"`
	To          string       `yaml:"to"`
	OutputDir   string       `yaml:"output_dir"`
	LogLevel    string       `yaml:"log_level"`
	Timestamp   bool         `yaml:"timestamp"`
	OpenAPIYAML bool         `yaml:"openapi_yaml"`
	Server      ServerConfig `yaml:"server"`
	Batch       BatchConfig  `yaml:"batch"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BatchConfig configures directory conversion
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		To:       "prisma",
		LogLevel: "info",
		Server:   ServerConfig{Addr: ":8080"},
		Batch:    BatchConfig{Workers: 4},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path reads DefaultPath when it exists; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case explicit || !errors.Is(err, fs.ErrNotExist):
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.From = getenv("SCHEMACONV_FROM", cfg.From)
	cfg.To = getenv("SCHEMACONV_TO", cfg.To)
	cfg.OutputDir = getenv("SCHEMACONV_OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = getenv("SCHEMACONV_LOG_LEVEL", cfg.LogLevel)
	cfg.Server.Addr = getenv("SCHEMACONV_SERVER_ADDR", cfg.Server.Addr)
	cfg.Timestamp = getenvBool("SCHEMACONV_TIMESTAMP", cfg.Timestamp)
	cfg.OpenAPIYAML = getenvBool("SCHEMACONV_OPENAPI_YAML", cfg.OpenAPIYAML)

	if v := getenv("SCHEMACONV_BATCH_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid SCHEMACONV_BATCH_WORKERS %q", v)
		}
		cfg.Batch.Workers = n
	}
	return nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}
