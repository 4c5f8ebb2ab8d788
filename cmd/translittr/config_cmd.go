// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/translittr/internal/config"
	"github.com/kraklabs/translittr/internal/ui"
)

func runConfigCmd(globals GlobalFlags, args []string) error {
	flag := pflag.NewFlagSet("config", pflag.ExitOnError)
	if err := flag.Parse(args); err != nil {
		return err
	}

	path := config.ProjectConfigPath(".")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if globals.JSON {
		raw, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		ui.Info("%s", string(raw))
		return nil
	}

	ui.Header("Project configuration")
	ui.Label("project", cfg.ProjectID)
	ui.Label("source -> target", cfg.SourceLang+" -> "+cfg.TargetLang)
	ui.Label("batch size", cfg.BatchSize)
	ui.Label("max concurrent jobs", cfg.Concurrency.MaxConcurrentJobs)
	ui.Label("max parallel files", cfg.Concurrency.MaxParallelFiles)
	ui.Label("cache memory size", cfg.Cache.MemorySize)
	return nil
}
