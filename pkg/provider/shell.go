// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Shell is the last-resort backend: it shells out to an external
// translation CLI on PATH. It is unavailable when that binary cannot
// be found, has the lowest RPM cap of the chain, and runs strictly
// sequentially.
//
// Unlike the HTTP backends, the wrapped CLI does not report throttling
// via a status code: under load it silently echoes its input back
// unchanged instead of translating it or exiting non-zero. This
// provider treats an output identical to its input (after trimming)
// as a rate-limit signal rather than a successful no-op translation,
// matching the original implementation's handling of the same tool.
type Shell struct {
	Base
	binary  string
	srcLang string
	tgtLang string
	lookup  func(string) (string, error) // exec.LookPath, overridable for tests
	run     func(ctx context.Context, bin string, args ...string) (string, error)
}

const (
	shellRPM    = 20
	shellBudget = 8 * time.Second
)

// NewShell constructs the external-CLI provider. binary is the
// executable name to resolve on PATH (e.g. "trans").
func NewShell(binary, srcLang, tgtLang string) *Shell {
	return &Shell{
		Base:    NewBase(shellRPM),
		binary:  binary,
		srcLang: srcLang,
		tgtLang: tgtLang,
		lookup:  exec.LookPath,
		run:     runCommand,
	}
}

func (p *Shell) Name() string { return "shell" }

// IsAvailable reports whether the wrapped binary resolves on PATH.
func (p *Shell) IsAvailable() bool {
	_, err := p.lookup(p.binary)
	return err == nil
}

// TranslateBatch invokes the CLI once per text, strictly in order.
func (p *Shell) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	out := make([]string, len(texts))
	for i, text := range texts {
		callCtx, cancel := context.WithTimeout(ctx, shellBudget)
		translated, err := p.translateOne(callCtx, text)
		cancel()
		if err != nil {
			return nil, err
		}
		out[i] = translated
	}
	return out, nil
}

func (p *Shell) translateOne(ctx context.Context, text string) (string, error) {
	p.MarkCalled()
	langPair := fmt.Sprintf("%s:%s", p.srcLang, p.tgtLang)
	output, err := p.run(ctx, p.binary, "-b", langPair, text)
	if err != nil {
		return "", fmt.Errorf("shell: %s: %w", p.binary, err)
	}

	trimmed := strings.TrimSpace(output)
	if trimmed == strings.TrimSpace(text) {
		return "", &RateLimitError{Provider: p.Name(), StatusCode: 0}
	}
	return trimmed, nil
}

func runCommand(ctx context.Context, bin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}
