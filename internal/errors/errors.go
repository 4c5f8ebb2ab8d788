// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package errors defines the CLI-facing error taxonomy: a UserError
// carrying a title, a detail, and an actionable hint, plus a terminal
// FatalError that prints it and exits. Job-internal failures (a
// provider call, a single file) never use this package — they are
// recorded as data on the job, not raised.
package errors

import (
	"encoding/json"
	"fmt"
	"os"
)

// Kind classifies a UserError for callers that branch on it. It is
// also emitted in FatalError's JSON output; the exit status is 1 for
// every kind.
type Kind string

const (
	KindConfig     Kind = "config"
	KindInput      Kind = "input"
	KindPermission Kind = "permission"
	KindInternal   Kind = "internal"
	KindNetwork    Kind = "network"
)

// UserError is an error meant to be shown directly to a CLI user.
type UserError struct {
	Kind   Kind
	Title  string
	Detail string
	Hint   string
	Cause  error
}

func (e *UserError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return e.Title
}

func (e *UserError) Unwrap() error { return e.Cause }

func newError(kind Kind, title, detail, hint string, cause error) *UserError {
	return &UserError{Kind: kind, Title: title, Detail: detail, Hint: hint, Cause: cause}
}

// NewConfigError reports a problem with the project config file.
func NewConfigError(title, detail, hint string, cause error) *UserError {
	return newError(KindConfig, title, detail, hint, cause)
}

// NewInputError reports a problem with user-supplied input (paths,
// flags, malformed source trees).
func NewInputError(title, detail, hint string, cause error) *UserError {
	return newError(KindInput, title, detail, hint, cause)
}

// NewPermissionError reports a filesystem or credential permission
// failure.
func NewPermissionError(title, detail, hint string, cause error) *UserError {
	return newError(KindPermission, title, detail, hint, cause)
}

// NewInternalError reports a failure with no user-actionable cause.
func NewInternalError(title, detail, hint string, cause error) *UserError {
	return newError(KindInternal, title, detail, hint, cause)
}

// NewNetworkError reports a transport failure talking to a provider or
// remote endpoint.
func NewNetworkError(title, detail, hint string, cause error) *UserError {
	return newError(KindNetwork, title, detail, hint, cause)
}

// FatalError prints err and exits the process with status 1. jsonMode
// emits a single JSON object on stderr instead of plain text, for
// scripted callers.
func FatalError(err error, jsonMode bool) {
	if err == nil {
		return
	}

	ue, ok := err.(*UserError)
	if !ok {
		ue = NewInternalError("unexpected error", err.Error(), "", err)
	}

	if jsonMode {
		payload := map[string]string{
			"kind":   string(ue.Kind),
			"title":  ue.Title,
			"detail": ue.Detail,
			"hint":   ue.Hint,
		}
		enc, _ := json.Marshal(payload)
		fmt.Fprintln(os.Stderr, string(enc))
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", ue.Title)
		if ue.Detail != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", ue.Detail)
		}
		if ue.Hint != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", ue.Hint)
		}
	}
	os.Exit(1)
}
