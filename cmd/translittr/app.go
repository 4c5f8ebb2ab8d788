// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/translittr/internal/config"
	"github.com/kraklabs/translittr/pkg/cache"
	"github.com/kraklabs/translittr/pkg/job"
	"github.com/kraklabs/translittr/pkg/provider"
)

// Default upstream endpoints for the built-in providers. These are
// not user tunables in project.yaml: only credentials and binary
// names vary per project, matching the original implementation's
// hardcoded provider URLs.
const (
	httpAEndpoint = "https://translate.googleapis.com/translate_a/single"
	httpBEndpoint = "https://api-free.deepl.com/v2/translate"
	httpCEndpoint = "https://api.mymemory.translated.net/get"
)

// app bundles the long-lived components a CLI command wires a
// translation run through: the provider chain, the translation cache,
// the job registry, and the metrics registry they report to.
type app struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Cache    *cache.Cache
	Chain    *provider.Chain
	Jobs     *job.Registry
	Runner   *job.Runner
	Hub      *job.Hub
	Logger   *slog.Logger
}

// newApp constructs every long-lived component from cfg, rooted at
// projectRoot (the directory holding .translittr/).
func newApp(cfg *config.Config, projectRoot string, logger *slog.Logger) (*app, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	providerMetrics := provider.NewMetrics(reg)
	jobMetrics := job.NewMetrics(reg)

	cacheDir := cfg.Cache.DataDir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(projectRoot, cacheDir)
	}
	store, err := cache.NewFileStore(filepath.Join(cacheDir, "translations.json"))
	if err != nil {
		return nil, fmt.Errorf("open translation cache: %w", err)
	}
	memCache := cache.New(cfg.Cache.MemorySize, store)
	if err := memCache.WarmUp(cfg.Cache.MemorySize); err != nil {
		logger.Warn("cache.warmup_failed", "error", err)
	}

	providers := []provider.Provider{
		provider.NewHTTPA(httpAEndpoint, cfg.SourceLang, cfg.TargetLang),
		provider.NewHTTPB(httpBEndpoint, cfg.Providers.HTTPBAPIKey, cfg.SourceLang, cfg.TargetLang),
		provider.NewHTTPC(httpCEndpoint, cfg.SourceLang, cfg.TargetLang, cfg.Providers.HTTPCEmail),
	}
	if cfg.Providers.ShellBinary != "" {
		providers = append(providers, provider.NewShell(cfg.Providers.ShellBinary, cfg.SourceLang, cfg.TargetLang))
	}
	chain := provider.NewChain(providers, memCache, providerMetrics, logger)

	jobStore, err := job.NewFileJobStore(filepath.Join(projectRoot, ".translittr", "jobs.json"))
	if err != nil {
		return nil, fmt.Errorf("open job registry: %w", err)
	}
	registry := job.NewRegistry(jobStore, 0, logger)

	runner := job.NewRunner(chain, registry, jobMetrics, logger)
	runner.BatchSize = cfg.BatchSize

	hub := job.NewHub(logger)

	return &app{
		Config:   cfg,
		Registry: reg,
		Cache:    memCache,
		Chain:    chain,
		Jobs:     registry,
		Runner:   runner,
		Hub:      hub,
		Logger:   logger,
	}, nil
}
