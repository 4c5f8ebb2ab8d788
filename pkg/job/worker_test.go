// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTranslator struct {
	prefix string
	calls  [][]string
}

func (e *echoTranslator) TranslateBatch(ctx context.Context, texts []string) ([]string, error) {
	e.calls = append(e.calls, append([]string(nil), texts...))
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = e.prefix + t
	}
	return out, nil
}

func TestTranslateFilePreservesOpaqueLinesAndOrder(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	content := "<?php\n$msg_arr['a'] = 'hello';\n// a comment\n$msg_arr['b'] = 'world';\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	dst := filepath.Join(dir, "out", "en.php")
	tr := &echoTranslator{prefix: "XX-"}
	cancelled := make(chan struct{})
	result, err := TranslateFile(context.Background(), tr, src, dst, 100, cancelled)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TranslatedStrings)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "<?php\n$msg_arr['a'] = 'XX-hello';\n// a comment\n$msg_arr['b'] = 'XX-world';\n", string(out))
}

func TestTranslateFileSkipsWhenOutputAlreadyComplete(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	require.NoError(t, os.WriteFile(src, []byte("$msg_arr['a'] = 'hello';\n"), 0o644))

	dst := filepath.Join(dir, "en.php.out")
	require.NoError(t, os.WriteFile(dst, []byte("$msg_arr['a'] = 'olá';\n"), 0o644))

	tr := &echoTranslator{prefix: "XX-"}
	result, err := TranslateFile(context.Background(), tr, src, dst, 100, make(chan struct{}))
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Empty(t, tr.calls)
}

func TestTranslateFileRetranslatesStaleShorterOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	require.NoError(t, os.WriteFile(src, []byte("$msg_arr['a'] = 'hello';\n$msg_arr['b'] = 'world';\n"), 0o644))

	dst := filepath.Join(dir, "en.php.out")
	require.NoError(t, os.WriteFile(dst, []byte("$msg_arr['a'] = 'olá';\n"), 0o644))

	tr := &echoTranslator{prefix: "XX-"}
	result, err := TranslateFile(context.Background(), tr, src, dst, 100, make(chan struct{}))
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.TranslatedStrings)
}

func TestTranslateFileBatchesAcrossBatchSize(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	content := ""
	for i := 0; i < 5; i++ {
		content += "$msg_arr['k'] = 'line';\n"
	}
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	dst := filepath.Join(dir, "out", "en.php")
	tr := &echoTranslator{prefix: "X"}
	_, err := TranslateFile(context.Background(), tr, src, dst, 2, make(chan struct{}))
	require.NoError(t, err)
	assert.Len(t, tr.calls, 3) // 2 + 2 + 1
}

type identityTranslator struct{}

func (identityTranslator) TranslateBatch(_ context.Context, texts []string) ([]string, error) {
	return append([]string(nil), texts...), nil
}

func TestTranslateFilePreservesUnrecognizedEscapeOnNoOpTranslation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	content := `$msg_arr['path'] = 'C:\temp';` + "\n"
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	dst := filepath.Join(dir, "out", "en.php")
	_, err := TranslateFile(context.Background(), identityTranslator{}, src, dst, 100, make(chan struct{}))
	require.NoError(t, err)

	out, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, content, string(out),
		"an unresolved translation must reproduce the source line byte-for-byte, even for a literal with an unrecognized escape pair that Reinject's general re-escaping would otherwise double")
}

func TestTranslateFileStopsBetweenBatchesOnCancel(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "en.php")
	content := ""
	for i := 0; i < 4; i++ {
		content += "$msg_arr['k'] = 'line';\n"
	}
	require.NoError(t, os.WriteFile(src, []byte(content), 0o644))

	dst := filepath.Join(dir, "out", "en.php")
	cancelled := make(chan struct{})
	close(cancelled)

	tr := &echoTranslator{prefix: "X"}
	result, err := TranslateFile(context.Background(), tr, src, dst, 2, cancelled)
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr), "no partial output should be written on cancellation")
}
