// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/translittr/pkg/transform"
)

// Translator is the subset of pkg/provider.Chain the file worker
// needs. Defined locally so pkg/job depends only on the method shape,
// not on provider's cache/metrics wiring.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string) ([]string, error)
}

// DefaultBatchSize is how many translatable strings the file worker
// sends to the translator per call, matching the original
// implementation's translator.py BATCH_SIZE.
const DefaultBatchSize = 100

type lineEntry struct {
	raw       string // full opaque line, verbatim, including trailing newline
	match     transform.Match
	pm        *transform.PlaceholderMap
	protected string
	isMatch   bool
}

// FileResult summarizes one file's run for the runner's aggregation.
type FileResult struct {
	File              string
	TranslatedStrings int
	Skipped           bool // resume: existing output already matched line count
	Cancelled         bool
}

// TranslateFile runs the three-pass pipeline for one source file:
// collect every line (classifying translatable ones), batch-translate
// their natural text through translator, then emit the output file
// with translations reinjected, preserving every opaque line
// byte-for-byte and preserving line order throughout.
//
// If dstPath already exists with at least as many lines as srcPath,
// the file is considered already translated and is skipped (resume). An
// existing output with fewer lines than the source is stale and is
// retranslated from scratch.
func TranslateFile(ctx context.Context, translator Translator, srcPath, dstPath string, batchSize int, cancelled <-chan struct{}) (FileResult, error) {
	result := FileResult{File: srcPath}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	lines, err := readLines(srcPath)
	if err != nil {
		return result, fmt.Errorf("job: read %s: %w", srcPath, err)
	}

	if existing, err := countLines(dstPath); err == nil && existing >= len(lines) {
		result.Skipped = true
		return result, nil
	}

	entries := collect(lines)

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.isMatch {
			texts = append(texts, e.protected)
		}
	}

	translated, err := translateInBatches(ctx, translator, texts, batchSize, cancelled)
	if err != nil {
		if err == errCancelled {
			result.Cancelled = true
			return result, nil
		}
		return result, err
	}

	if err := emit(dstPath, entries, translated); err != nil {
		return result, fmt.Errorf("job: write %s: %w", dstPath, err)
	}

	result.TranslatedStrings = len(texts)
	return result, nil
}

func collect(lines []string) []lineEntry {
	entries := make([]lineEntry, 0, len(lines))
	for _, raw := range lines {
		// Classify the line without its newline: Line appends one when
		// the translated line is reassembled.
		m, ok := transform.Classify(strings.TrimSuffix(raw, "\n"))
		if !ok {
			entries = append(entries, lineEntry{raw: raw})
			continue
		}
		natural := transform.Prepare(m.Literal, m.QuoteKind)
		protected, pm := transform.Protect(natural)
		entries = append(entries, lineEntry{
			raw:       raw,
			match:     m,
			pm:        pm,
			protected: protected,
			isMatch:   true,
		})
	}
	return entries
}

var errCancelled = fmt.Errorf("job: cancelled")

// translateInBatches sends texts to translator in chunks of batchSize,
// checking for cancellation between chunks so a cancel request takes
// effect within one batch's latency rather than waiting for the whole
// file.
func translateInBatches(ctx context.Context, translator Translator, texts []string, batchSize int, cancelled <-chan struct{}) ([]string, error) {
	out := make([]string, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		select {
		case <-cancelled:
			return nil, errCancelled
		default:
		}

		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		chunk, err := translator.TranslateBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("translate batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// emit reassembles entries into dstPath, substituting translated text
// for each matched line's literal, only after the full translate pass
// has completed — output is never written line-by-line interleaved
// with translation, so a partially-translated file is never visible.
func emit(dstPath string, entries []lineEntry, translated []string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}

	tmp := dstPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	ti := 0
	for _, e := range entries {
		if !e.isMatch {
			if _, err := w.WriteString(e.raw); err != nil {
				f.Close()
				return err
			}
			continue
		}

		// An unresolved or no-op translation comes back identical to
		// what was sent out. Emitting the original line verbatim keeps
		// the round trip byte-exact even for literals whose raw escape
		// spelling Reinject's general re-escaping wouldn't reproduce
		// (an unrecognized \X pair in a single-quoted literal), rather
		// than re-deriving a syntactically valid but differently
		// spelled equivalent.
		out := e.raw
		if translated[ti] != e.protected {
			rawLiteral := transform.Reinject(translated[ti], e.pm, e.match.QuoteKind)
			out = transform.Line(e.match, rawLiteral)
		}
		ti++
		if _, err := w.WriteString(out); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dstPath)
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text()+"\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
