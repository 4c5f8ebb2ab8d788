// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and saves the per-project configuration file
// (.translittr/project.yaml) and defines the tunables the job runner,
// cache, and provider chain are constructed from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/kraklabs/translittr/internal/errors"
)

const configVersion = 1

// ConcurrencyConfig records the concurrency limits in project.yaml.
// The job runner does not read these values: it applies its own fixed
// job.MaxConcurrentJobs and job.MaxParallelFiles limits, which equal
// the defaults here.
type ConcurrencyConfig struct {
	MaxConcurrentJobs int `yaml:"max_concurrent_jobs"`
	MaxParallelFiles  int `yaml:"max_parallel_files"`
}

// RetryConfig records backoff settings in project.yaml, in the same
// shape as the teacher's ingestion retry policy. No component reads
// it: a failed provider call is not retried, the chain moves on to
// the next provider.
type RetryConfig struct {
	MaxRetries     int           `yaml:"max_retries"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	Multiplier     float64       `yaml:"multiplier"`
}

// CacheConfig governs the two-level translation cache.
type CacheConfig struct {
	MemorySize int    `yaml:"memory_size"`
	DataDir    string `yaml:"data_dir"`
}

// ProvidersConfig carries the per-provider configuration a project
// needs beyond the built-in defaults: credentials and binary paths.
type ProvidersConfig struct {
	HTTPBAPIKey string `yaml:"http_b_api_key"`
	HTTPCEmail  string `yaml:"http_c_email"`
	ShellBinary string `yaml:"shell_binary"`
}

// Config is the full per-project configuration.
type Config struct {
	Version    int    `yaml:"version"`
	ProjectID  string `yaml:"project_id"`
	SourceLang string `yaml:"source_lang"`
	TargetLang string `yaml:"target_lang"`
	BatchSize  int    `yaml:"batch_size"`
	// InterCallDelaySeconds is clamped to [0.05, 5.0] by Normalize.
	// The job runner and providers do not read it; provider calls are
	// paced only by each provider's own RPM cap.
	InterCallDelaySeconds float64           `yaml:"inter_call_delay_seconds"`
	Concurrency           ConcurrencyConfig `yaml:"concurrency"`
	Retry                 RetryConfig       `yaml:"retry"`
	Cache                 CacheConfig       `yaml:"cache"`
	Providers             ProvidersConfig   `yaml:"providers"`
}

// DefaultConfig returns a Config with every tunable set to its
// specified default.
func DefaultConfig(projectID string) *Config {
	return &Config{
		Version:               configVersion,
		ProjectID:             projectID,
		SourceLang:            "en",
		TargetLang:            "pt_br",
		BatchSize:             100,
		InterCallDelaySeconds: 0.2,
		Concurrency: ConcurrencyConfig{
			MaxConcurrentJobs: 3,
			MaxParallelFiles:  4,
		},
		Retry: RetryConfig{
			MaxRetries:     5,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Multiplier:     2.0,
		},
		Cache: CacheConfig{
			MemorySize: 10_000,
			DataDir:    ".translittr/cache",
		},
	}
}

// Normalize clamps user-editable ranges and applies environment
// variable overrides, matching the teacher's getEnv-override
// convention in cmd/cie/config.go.
func (c *Config) Normalize() {
	if c.InterCallDelaySeconds < 0.05 {
		c.InterCallDelaySeconds = 0.05
	}
	if c.InterCallDelaySeconds > 5.0 {
		c.InterCallDelaySeconds = 5.0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Concurrency.MaxConcurrentJobs <= 0 {
		c.Concurrency.MaxConcurrentJobs = 3
	}
	if c.Concurrency.MaxParallelFiles <= 0 {
		c.Concurrency.MaxParallelFiles = 4
	}
	if c.Cache.MemorySize <= 0 {
		c.Cache.MemorySize = 10_000
	}

	if v := getEnv("TRANSLITTR_HTTP_B_API_KEY"); v != "" {
		c.Providers.HTTPBAPIKey = v
	}
	if v := getEnv("TRANSLITTR_HTTP_C_EMAIL"); v != "" {
		c.Providers.HTTPCEmail = v
	}
	if v := getEnv("TRANSLITTR_SHELL_BINARY"); v != "" {
		c.Providers.ShellBinary = v
	}
}

func getEnv(key string) string {
	return os.Getenv(key)
}

// ProjectConfigPath returns the conventional project config location
// under root.
func ProjectConfigPath(root string) string {
	return filepath.Join(root, ".translittr", "project.yaml")
}

// Load reads and parses the config file at path, applying
// normalization and environment overrides before returning it.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(
			"could not read project config",
			err.Error(),
			fmt.Sprintf("run `translittr init` to create %s", path),
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, apperrors.NewConfigError(
			"could not parse project config",
			err.Error(),
			"check the file for YAML syntax errors",
			err,
		)
	}
	if cfg.Version != configVersion {
		return nil, apperrors.NewConfigError(
			"unsupported project config version",
			fmt.Sprintf("expected version %d, found %d", configVersion, cfg.Version),
			"re-run `translittr init` to regenerate the config",
			nil,
		)
	}

	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg to path as YAML, creating the parent directory if
// needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewPermissionError(
			"could not create project directory",
			err.Error(),
			"",
			err,
		)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return apperrors.NewInternalError("could not encode project config", err.Error(), "", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return apperrors.NewPermissionError("could not write project config", err.Error(), "", err)
	}
	return nil
}
