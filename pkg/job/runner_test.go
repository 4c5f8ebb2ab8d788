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

func TestRunnerRunTranslatesTreeAndPackages(t *testing.T) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "input")
	outputDir := filepath.Join(root, "output")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "en.php"),
		[]byte("$msg_arr['greeting'] = 'hello';\n"), 0o644))

	j, err := NewJob(inputDir, outputDir, "")
	require.NoError(t, err)

	tr := &echoTranslator{prefix: "XX-"}
	runner := NewRunner(tr, NewRegistry(nil, 0, nil), nil, nil)

	require.NoError(t, runner.Run(context.Background(), j, nil))
	assert.Equal(t, StatusCompleted, j.Status)
	assert.Equal(t, 1, j.ProcessedFiles)
	assert.Equal(t, 1, j.TranslatedStrings)
	assert.NotEmpty(t, j.ArchivePath)

	out, err := os.ReadFile(filepath.Join(outputDir, "en.php"))
	require.NoError(t, err)
	assert.Equal(t, "$msg_arr['greeting'] = 'XX-hello';\n", string(out))
}

func TestRunnerRunMarksCancelledJobs(t *testing.T) {
	root := t.TempDir()
	inputDir := filepath.Join(root, "input")
	outputDir := filepath.Join(root, "output")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "en.php"),
		[]byte("$msg_arr['a'] = 'hello';\n"), 0o644))

	j, err := NewJob(inputDir, outputDir, "")
	require.NoError(t, err)
	j.Cancel()

	tr := &echoTranslator{prefix: "XX-"}
	runner := NewRunner(tr, NewRegistry(nil, 0, nil), nil, nil)
	require.NoError(t, runner.Run(context.Background(), j, nil))
	assert.Equal(t, StatusCancelled, j.Status)
}
