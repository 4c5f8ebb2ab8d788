// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/config"
	apperrors "github.com/kraklabs/translittr/internal/errors"
	"github.com/kraklabs/translittr/internal/ui"
	"github.com/kraklabs/translittr/pkg/job"
)

// runStatus executes the 'status' CLI command: it reports the
// lifecycle state of one job, or every job known to the local job
// registry when --job is omitted.
func runStatus(globals GlobalFlags, args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	jobID := fs.String("job", "", "job id to report on (defaults to every known job)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(config.ProjectConfigPath("."))
	if err != nil {
		return err
	}
	a, err := newApp(cfg, ".", nil)
	if err != nil {
		return apperrors.NewInternalError("could not initialize translittr", err.Error(), "", err)
	}

	if *jobID != "" {
		j, ok := a.Jobs.Get(*jobID)
		if !ok {
			return apperrors.NewInputError("job not found", fmt.Sprintf("no job with id %q", *jobID), "", nil)
		}
		return printJobStatus(globals, j.Snapshot())
	}

	jobs := a.Jobs.List("")
	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}

	if len(jobs) == 0 {
		ui.Info("no jobs recorded yet")
		return nil
	}
	ui.Header("translittr jobs")
	for _, snap := range jobs {
		fmt.Println()
		if err := printJobStatus(globals, snap); err != nil {
			return err
		}
	}
	return nil
}

func printJobStatus(globals GlobalFlags, snap job.Job) error {
	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	ui.Label("job id", snap.ID)
	ui.Label("status", string(snap.Status))
	ui.Label("input", snap.InputDir)
	ui.Label("output", snap.OutputDir)
	ui.CountText("files", snap.ProcessedFiles)
	ui.CountText("strings translated", snap.TranslatedStrings)
	if len(snap.Errors) > 0 {
		ui.Warningf("%d error(s) recorded", len(snap.Errors))
	}
	if snap.ArchivePath != "" {
		ui.Label("archive", snap.ArchivePath)
	}
	return nil
}
