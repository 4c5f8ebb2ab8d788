// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/config"
	apperrors "github.com/kraklabs/translittr/internal/errors"
	"github.com/kraklabs/translittr/internal/ui"
)

func runInit(globals GlobalFlags, args []string) error {
	flag := pflag.NewFlagSet("init", pflag.ExitOnError)
	projectID := flag.String("project-id", "", "project identifier (defaults to the current directory name)")
	force := flag.Bool("force", false, "overwrite an existing project config")
	if err := flag.Parse(args); err != nil {
		return err
	}

	if *projectID == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return apperrors.NewInternalError("could not determine current directory", err.Error(), "", err)
		}
		*projectID = filepath.Base(cwd)
	}

	path := config.ProjectConfigPath(".")
	if _, err := os.Stat(path); err == nil && !*force {
		return apperrors.NewInputError(
			"project config already exists",
			path,
			"pass --force to overwrite it",
			nil,
		)
	}

	cfg := config.DefaultConfig(*projectID)
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	if !globals.Quiet {
		ui.Successf("created %s", path)
		ui.Label("project", cfg.ProjectID)
		ui.Label("source -> target", fmt.Sprintf("%s -> %s", cfg.SourceLang, cfg.TargetLang))
	}
	return nil
}
