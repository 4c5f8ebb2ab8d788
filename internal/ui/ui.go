// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the colored CLI output helpers shared by every
// translittr subcommand: section headers, labeled values, dimmed
// detail text, and the handful of semantic colors the CLI uses
// consistently.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Semantic colors, initialized by InitColors so --no-color and
// non-TTY output both degrade to plain text.
var (
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Red    = color.New(color.FgRed)
	Cyan   = color.New(color.FgCyan)
	Dim    = color.New(color.Faint)
	Bold   = color.New(color.Bold)
)

// InitColors disables color output when noColor is set or stdout is
// not a terminal, matching the teacher's CLI entry point behavior.
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(title string) {
	Bold.Println(title)
}

// SubHeader prints a dimmer, indented section title.
func SubHeader(title string) {
	Dim.Println("  " + title)
}

// Label prints "name: value" with the label dimmed.
func Label(name string, value interface{}) {
	Dim.Printf("%s: ", name)
	fmt.Println(value)
}

// DimText prints a line in dimmed text, for secondary detail.
func DimText(format string, args ...interface{}) {
	Dim.Printf(format+"\n", args...)
}

// CountText prints an integer count in cyan, for summary lines.
func CountText(label string, n int) {
	fmt.Print(label + ": ")
	Cyan.Println(n)
}

// Info prints a plain informational line.
func Info(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// Successf prints a green success line.
func Successf(format string, args ...interface{}) {
	Green.Printf(format+"\n", args...)
}

// Warningf prints a yellow warning line.
func Warningf(format string, args ...interface{}) {
	Yellow.Printf(format+"\n", args...)
}

// Errorf prints a red error line.
func Errorf(format string, args ...interface{}) {
	Red.Printf(format+"\n", args...)
}
