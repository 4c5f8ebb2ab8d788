// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Command translittr drives PHP localization translation jobs: it
// initializes a project, runs translation jobs against an input tree,
// reports job status, and can serve an HTTP/WebSocket surface for
// watching jobs asynchronously.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/translittr/internal/errors"
	"github.com/kraklabs/translittr/internal/ui"
)

// GlobalFlags are parsed before the subcommand name and apply to every
// subcommand, matching the teacher's cmd/cie/main.go dispatch.
type GlobalFlags struct {
	JSON    bool
	NoColor bool
	Verbose bool
	Quiet   bool
}

func main() {
	globals := GlobalFlags{}
	flag := pflag.NewFlagSet("translittr", pflag.ExitOnError)
	flag.BoolVar(&globals.JSON, "json", false, "emit machine-readable JSON output")
	flag.BoolVar(&globals.NoColor, "no-color", false, "disable colored output")
	flag.BoolVar(&globals.Verbose, "verbose", false, "enable debug logging")
	flag.BoolVar(&globals.Quiet, "quiet", false, "suppress non-essential output")
	flag.SetInterspersed(false)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, `translittr - PHP localization translation job engine

Usage:
  translittr <command> [flags]

Commands:
  init        create a .translittr/project.yaml in the current directory
  translate   run a translation job against an input directory
  status      show the status of a job
  discover    find candidate input directories under a root
  serve       run the HTTP/WebSocket job server
  config      show the project configuration

Use "translittr <command> --help" for flags on a specific command.`)
	}
	if err := flag.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	ui.InitColors(globals.NoColor)
	initLogging(globals.Verbose)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "init":
		err = runInit(globals, rest)
	case "translate":
		err = runTranslate(globals, rest)
	case "status":
		err = runStatus(globals, rest)
	case "discover":
		err = runDiscover(globals, rest)
	case "serve":
		err = runServe(globals, rest)
	case "config":
		err = runConfigCmd(globals, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
