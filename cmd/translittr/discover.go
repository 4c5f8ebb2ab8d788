// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/ui"
)

var discoverMsgArrLine = regexp.MustCompile(`^\s*\$msg_arr\[`)

// runDiscover executes the 'discover' CLI command, supplementing the
// original implementation's translate.py --find flag: it walks root
// looking for language/en/-style subtrees that contain .php files
// with $msg_arr[...] assignments, and lists them as translate
// candidates without translating anything.
func runDiscover(globals GlobalFlags, args []string) error {
	fs := pflag.NewFlagSet("discover", pflag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	root := "."
	if rest := fs.Args(); len(rest) > 0 {
		root = rest[0]
	}

	candidates, err := discoverCandidates(root)
	if err != nil {
		return err
	}

	if globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	if len(candidates) == 0 {
		ui.Info("no candidate language trees found under %s", root)
		return nil
	}

	ui.Header("Translate candidates")
	for _, c := range candidates {
		fmt.Println()
		ui.Label("directory", c.Dir)
		ui.CountText("php files with $msg_arr[ lines", c.MatchingFiles)
	}
	return nil
}

// discoverCandidate names one directory worth translating.
type discoverCandidate struct {
	Dir           string `json:"dir"`
	MatchingFiles int    `json:"matching_files"`
}

// discoverCandidates walks root looking for "en" or "english" language
// directories that contain at least one .php file with a $msg_arr[
// assignment, matching the original's heuristic for finding
// translatable source trees without requiring an exact layout.
func discoverCandidates(root string) ([]discoverCandidate, error) {
	var byDir = map[string]int{}

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".php") {
			return nil
		}
		if !isUnderEnglishLanguageDir(path) {
			return nil
		}
		has, ferr := fileHasMsgArrLine(path)
		if ferr != nil {
			return nil // unreadable file, skip rather than fail the whole walk
		}
		if !has {
			return nil
		}
		byDir[filepath.Dir(path)]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", root, err)
	}

	out := make([]discoverCandidate, 0, len(byDir))
	for dir, n := range byDir {
		out = append(out, discoverCandidate{Dir: dir, MatchingFiles: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Dir < out[j].Dir })
	return out, nil
}

// isUnderEnglishLanguageDir reports whether path has a path component
// named "en" or "english", the directory naming conventions the
// original tool's source trees use for the English source strings.
func isUnderEnglishLanguageDir(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		switch strings.ToLower(part) {
		case "en", "english":
			return true
		}
	}
	return false
}

func fileHasMsgArrLine(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		if discoverMsgArrLine.MatchString(scanner.Text()) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
