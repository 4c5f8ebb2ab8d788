// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressConfig controls whether a progress bar is drawn at all,
// matching the teacher's NewProgressConfig(globals) convention: quiet
// or JSON output suppresses the bar entirely.
type progressConfig struct {
	enabled bool
}

// newProgressConfig derives a progressConfig from the CLI's global
// flags.
func newProgressConfig(globals GlobalFlags) progressConfig {
	return progressConfig{enabled: !globals.Quiet && !globals.JSON}
}

// newProgressBar builds a terminal progress bar for total units of
// work, or a disabled no-op bar when cfg.enabled is false.
func newProgressBar(cfg progressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.enabled {
		return progressbar.DefaultSilent(total, description)
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() { os.Stderr.Write([]byte("\n")) }),
		progressbar.OptionClearOnFinish(),
	)
}

// phaseDescription returns a human-readable label for a job runner
// phase, matching the teacher's phaseDescription switch.
func phaseDescription(phase string) string {
	switch phase {
	case "translate":
		return "Translating files"
	case "done":
		return "Done"
	default:
		return phase
	}
}
