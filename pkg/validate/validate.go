// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validate cross-checks a translated output tree against its
// source tree: every source file must have a corresponding output
// file with the same line count, the same set of array keys, and
// every translatable line must show evidence of translation.
package validate

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/kraklabs/translittr/pkg/transform"
)

// IssueKind classifies one validator finding.
type IssueKind string

const (
	IssueMissingFile         IssueKind = "missing_file"
	IssueLineCount           IssueKind = "line_count"
	IssueKeyChanged          IssueKind = "key_changed"
	IssueUntranslated        IssueKind = "untranslated"
	IssuePlaceholderMismatch IssueKind = "placeholder"
	IssueEscapeMismatch      IssueKind = "escape"
)

// MaxIssues bounds how many issues one report records in detail.
const MaxIssues = 20

// Issue is one cross-tree discrepancy.
type Issue struct {
	Kind   IssueKind `json:"kind"`
	File   string    `json:"file"`
	Line   int       `json:"line,omitempty"`
	Detail string    `json:"detail,omitempty"`
}

// Report is the cross-tree validator's result.
type Report struct {
	Success             int     `json:"success"`
	Untranslated        int     `json:"untranslated"`
	MissingPlaceholders int     `json:"missing_placeholders"`
	EscapeIssues        int     `json:"escape_issues"`
	LineMismatch        int     `json:"line_mismatch"`
	MissingFiles        int     `json:"missing_files"`
	Issues              []Issue `json:"issues"`
	TotalIssues         int     `json:"total_issues"`
}

func (r *Report) addIssue(i Issue) {
	r.TotalIssues++
	switch i.Kind {
	case IssueMissingFile:
		r.MissingFiles++
	case IssueLineCount:
		r.LineMismatch++
	case IssueUntranslated:
		r.Untranslated++
	case IssuePlaceholderMismatch:
		r.MissingPlaceholders++
	case IssueEscapeMismatch:
		r.EscapeIssues++
	}
	if len(r.Issues) < MaxIssues {
		r.Issues = append(r.Issues, i)
	}
}

// Validate compares sourceRoot against outputRoot for every file
// listed in sourceFiles (absolute paths under sourceRoot).
func Validate(sourceRoot, outputRoot string, sourceFiles []string) *Report {
	report := &Report{}

	for _, srcPath := range sourceFiles {
		rel, err := filepath.Rel(sourceRoot, srcPath)
		if err != nil {
			rel = filepath.Base(srcPath)
		}
		dstPath := filepath.Join(outputRoot, rel)

		if _, err := os.Stat(dstPath); err != nil {
			report.addIssue(Issue{Kind: IssueMissingFile, File: rel})
			continue
		}

		srcLines, err := readLines(srcPath)
		if err != nil {
			report.addIssue(Issue{Kind: IssueMissingFile, File: rel, Detail: err.Error()})
			continue
		}
		dstLines, err := readLines(dstPath)
		if err != nil {
			report.addIssue(Issue{Kind: IssueMissingFile, File: rel, Detail: err.Error()})
			continue
		}

		if len(srcLines) != len(dstLines) {
			report.addIssue(Issue{Kind: IssueLineCount, File: rel,
				Detail: "source and output line counts differ"})
			continue
		}

		validateFile(report, rel, srcLines, dstLines)
	}

	return report
}

func validateFile(report *Report, rel string, srcLines, dstLines []string) {
	for i := range srcLines {
		srcMatch, srcOK := transform.Classify(srcLines[i])
		dstMatch, dstOK := transform.Classify(dstLines[i])

		if !srcOK {
			// opaque line: must be byte-identical.
			if srcLines[i] != dstLines[i] {
				report.addIssue(Issue{Kind: IssueKeyChanged, File: rel, Line: i + 1,
					Detail: "opaque line changed"})
			}
			continue
		}
		if !dstOK {
			report.addIssue(Issue{Kind: IssueKeyChanged, File: rel, Line: i + 1,
				Detail: "output line no longer matches the translatable pattern"})
			continue
		}
		if srcKey(srcMatch.Prefix) != srcKey(dstMatch.Prefix) {
			report.addIssue(Issue{Kind: IssueKeyChanged, File: rel, Line: i + 1,
				Detail: "array key changed"})
			continue
		}

		srcNatural := transform.Prepare(srcMatch.Literal, srcMatch.QuoteKind)
		dstNatural := transform.Prepare(dstMatch.Literal, dstMatch.QuoteKind)

		_, srcPM := transform.Protect(srcNatural)
		_, dstPM := transform.Protect(dstNatural)
		if srcPM.Count() != dstPM.Count() {
			report.addIssue(Issue{Kind: IssuePlaceholderMismatch, File: rel, Line: i + 1})
			continue
		}

		if srcNatural == dstNatural && hasLetters(srcNatural) {
			report.addIssue(Issue{Kind: IssueUntranslated, File: rel, Line: i + 1})
			continue
		}

		if !validEscaping(dstMatch.Literal, dstMatch.QuoteKind) {
			report.addIssue(Issue{Kind: IssueEscapeMismatch, File: rel, Line: i + 1})
			continue
		}

		report.Success++
	}
}

// srcKey returns a matched prefix unchanged (indentation, the
// $msg_arr[...] index, and the spacing around "="), for exact-match
// key comparison. key_changed is intentionally strict: no
// normalization of whitespace or case.
func srcKey(prefix string) string {
	return prefix
}

func hasLetters(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// validEscaping re-derives the natural text from raw and checks that
// reinjecting it reproduces the same raw literal, i.e. the output
// line's own escaping is internally consistent.
func validEscaping(raw string, qk transform.QuoteKind) bool {
	natural := transform.Prepare(raw, qk)
	protected, pm := transform.Protect(natural)
	return transform.Reinject(protected, pm, qk) == raw
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
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}
