// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySingleQuoted(t *testing.T) {
	m, ok := Classify(`$msg_arr['hello'] = 'Hello world';`)
	require.True(t, ok)
	assert.Equal(t, Single, m.QuoteKind)
	assert.Equal(t, `$msg_arr['hello'] = '`, m.Prefix)
	assert.Equal(t, `Hello world`, m.Literal)
	assert.Equal(t, `';`, m.Suffix)
}

func TestClassifyDoubleQuoted(t *testing.T) {
	m, ok := Classify(`$msg_arr['q'] = "She said \"hi\"";`)
	require.True(t, ok)
	assert.Equal(t, Double, m.QuoteKind)
	assert.Equal(t, `She said \"hi\"`, m.Literal)
}

func TestClassifyOpaqueLine(t *testing.T) {
	_, ok := Classify(`<?php`)
	assert.False(t, ok)

	_, ok = Classify(`$other_arr['x'] = 'irrelevant';`)
	assert.False(t, ok)
}

func TestClassifyIndentationAndTrailingWhitespace(t *testing.T) {
	m, ok := Classify("    $msg_arr['k'] = 'v';  ")
	require.True(t, ok)
	assert.Equal(t, `    $msg_arr['k'] = '`, m.Prefix)
	assert.Equal(t, `v`, m.Literal)
}

func TestPrepareSingleQuoteEscapes(t *testing.T) {
	assert.Equal(t, `It's here`, Prepare(`It\'s here`, Single))
	assert.Equal(t, `C:\path`, Prepare(`C:\\path`, Single))
	assert.Equal(t, `plain text`, Prepare(`plain text`, Single))
}

func TestPrepareDoubleQuoteEscapes(t *testing.T) {
	assert.Equal(t, `She said "hi"`, Prepare(`She said \"hi\"`, Double))
	assert.Equal(t, `plain text`, Prepare(`plain text`, Double))
}

func TestPrepareLeavesUnrecognizedEscapesAlone(t *testing.T) {
	assert.Equal(t, `tab\there`, Prepare(`tab\there`, Single))
	assert.Equal(t, `tab\there`, Prepare(`tab\there`, Double))
}

func TestProtectAssignsTokensInFirstOccurrenceOrder(t *testing.T) {
	protected, pm := Protect(`Hello {user}, you have {n} new {type} messages, {user}.`)
	assert.Equal(t, `Hello __PH0__, you have __PH1__ new __PH2__ messages, __PH0__.`, protected)
	assert.Equal(t, []string{"__PH0__", "__PH1__", "__PH2__"}, pm.order)
	assert.Equal(t, "{user}", pm.tokens["__PH0__"])
	assert.Equal(t, "{n}", pm.tokens["__PH1__"])
	assert.Equal(t, "{type}", pm.tokens["__PH2__"])
}

func TestProtectIgnoresMalformedBraces(t *testing.T) {
	protected, pm := Protect(`{1} is not a placeholder but {ok} is`)
	assert.Equal(t, `{1} is not a placeholder but __PH0__ is`, protected)
	assert.Len(t, pm.order, 1)
}

func TestReinjectRestoresPlaceholdersAndEscapes(t *testing.T) {
	_, pm := Protect(`Hello {user}, you have {n} messages`)
	out := Reinject(`Olá __PH0__, você tem __PH1__ mensagens`, pm, Double)
	assert.Equal(t, `Olá {user}, você tem {n} mensagens`, out)
}

func TestReinjectEscapesSingleQuoteBody(t *testing.T) {
	out := Reinject(`It's here`, NewPlaceholderMap(), Single)
	assert.Equal(t, `It\'s here`, out)
}

func TestReinjectEscapesDoubleQuoteBody(t *testing.T) {
	out := Reinject(`She said "hi"`, NewPlaceholderMap(), Double)
	assert.Equal(t, `She said \"hi\"`, out)
}

// Round-trip invariant from the classify/prepare/reinject pipeline: feeding
// Prepare's output straight back into Reinject with no placeholder
// substitutions and no translation reproduces the original raw literal.
func TestRoundTripSingleQuoted(t *testing.T) {
	raws := []string{
		`Hello world`,
		`It\'s here`,
		`C:\\path\\to\\file`,
		`mixed \' and \\ escapes`,
	}
	for _, raw := range raws {
		natural := Prepare(raw, Single)
		protected, pm := Protect(natural)
		got := Reinject(protected, pm, Single)
		assert.Equal(t, raw, got, "round trip for %q", raw)
	}
}

func TestRoundTripDoubleQuoted(t *testing.T) {
	raws := []string{
		`Hello world`,
		`She said \"hi\"`,
		`plain`,
	}
	for _, raw := range raws {
		natural := Prepare(raw, Double)
		protected, pm := Protect(natural)
		got := Reinject(protected, pm, Double)
		assert.Equal(t, raw, got, "round trip for %q", raw)
	}
}

func TestLineReassembly(t *testing.T) {
	m, ok := Classify(`$msg_arr['hello'] = 'Hello world';`)
	require.True(t, ok)
	out := Line(m, `Olá mundo`)
	assert.Equal(t, "$msg_arr['hello'] = 'Olá mundo';\n", out)
}
