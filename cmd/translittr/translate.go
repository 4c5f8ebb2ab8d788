// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/config"
	apperrors "github.com/kraklabs/translittr/internal/errors"
	"github.com/kraklabs/translittr/internal/ui"
	"github.com/kraklabs/translittr/pkg/job"
)

// runTranslate executes the 'translate' CLI command: it walks inputDir
// for PHP files carrying $msg_arr[...] assignments, translates every
// matched line through the provider chain, and writes the translated
// tree under outputDir. The validation report is attached to the job,
// and the packaged archives are written to outputDir's parent
// directory.
func runTranslate(globals GlobalFlags, args []string) error {
	fs := pflag.NewFlagSet("translate", pflag.ExitOnError)
	inputDir := fs.String("input", "", "input directory tree to translate (required)")
	outputDir := fs.String("output", "", "output directory for translated files (defaults to <input>-pt_br)")
	owner := fs.String("owner", "", "optional owner tag recorded on the job")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *inputDir == "" {
		return apperrors.NewInputError(
			"missing --input",
			"translate requires an --input directory",
			"translittr translate --input <dir>",
			nil,
		)
	}
	if _, err := os.Stat(*inputDir); err != nil {
		return apperrors.NewInputError("input directory not found", err.Error(), "", err)
	}
	if *outputDir == "" {
		*outputDir = *inputDir + "-pt_br"
	}

	cfg, err := config.Load(config.ProjectConfigPath("."))
	if err != nil {
		return err
	}

	a, err := newApp(cfg, ".", nil)
	if err != nil {
		return apperrors.NewInternalError("could not initialize translittr", err.Error(), "", err)
	}

	j, err := job.NewJob(*inputDir, *outputDir, *owner)
	if err != nil {
		return apperrors.NewInternalError("could not create job", err.Error(), "", err)
	}
	a.Jobs.Put(j)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigC
		a.Logger.Info("translate.signal.cancel", "job_id", j.ID)
		j.Cancel()
		cancel()
	}()

	progressCfg := newProgressConfig(globals)
	var bar *progressbar.ProgressBar
	var barPhase string

	if !globals.Quiet {
		ui.Header("translittr translate")
		ui.Label("input", *inputDir)
		ui.Label("output", *outputDir)
		ui.Label("job id", j.ID)
	}

	runErr := a.Runner.Run(ctx, j, func(current, total int64, phase string) {
		if phase != barPhase {
			if bar != nil {
				_ = bar.Finish()
			}
			barPhase = phase
			bar = newProgressBar(progressCfg, total, phaseDescription(phase))
		}
		if bar != nil {
			_ = bar.Set64(current)
		}
	})
	if bar != nil {
		_ = bar.Finish()
	}

	snap := j.Snapshot()
	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(snap)
		return runErr
	}

	if runErr != nil {
		return apperrors.NewInternalError("translation job failed", runErr.Error(), "", runErr)
	}

	fmt.Println()
	ui.Header("Translation complete")
	ui.Label("status", string(snap.Status))
	ui.CountText("files processed", snap.ProcessedFiles)
	ui.CountText("strings translated", snap.TranslatedStrings)
	if len(snap.Errors) > 0 {
		ui.Warningf("%d file(s) reported errors", len(snap.Errors))
	}
	if snap.ArchivePath != "" {
		ui.Label("archive", filepath.Clean(snap.ArchivePath))
	}
	return nil
}
