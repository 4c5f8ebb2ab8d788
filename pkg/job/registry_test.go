// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package job

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutGetPop(t *testing.T) {
	r := NewRegistry(nil, 0, nil)
	defer r.Close()

	j, err := NewJob("/in", "/out", "")
	require.NoError(t, err)
	r.Put(j)

	got, ok := r.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, j.ID, got.ID)

	popped, ok := r.Pop(j.ID)
	require.True(t, ok)
	assert.Equal(t, j.ID, popped.ID)

	_, ok = r.Get(j.ID)
	assert.False(t, ok)
}

func TestRegistryListFiltersByOwner(t *testing.T) {
	r := NewRegistry(nil, 0, nil)
	defer r.Close()

	a, _ := NewJob("/in", "/out", "alice")
	b, _ := NewJob("/in", "/out", "bob")
	r.Put(a)
	r.Put(b)

	all := r.List("")
	assert.Len(t, all, 2)

	aliceOnly := r.List("alice")
	require.Len(t, aliceOnly, 1)
	assert.Equal(t, "alice", aliceOnly[0].Owner)
}

func TestRegistryCountRunning(t *testing.T) {
	r := NewRegistry(nil, 0, nil)
	defer r.Close()

	a, _ := NewJob("/in", "/out", "")
	a.Start(1, 1)
	b, _ := NewJob("/in", "/out", "")
	r.Put(a)
	r.Put(b)

	assert.Equal(t, 1, r.CountRunning())
}

func TestRegistryCleanupOldRemovesExpiredTerminalJobs(t *testing.T) {
	r := NewRegistry(nil, time.Millisecond, nil)
	defer r.Close()

	j, _ := NewJob("/in", "/out", "")
	j.Start(1, 1)
	j.Finish(StatusCompleted)
	past := time.Now().Add(-time.Hour)
	j.CompletedAt = &past
	r.Put(j)

	r.CleanupOld()
	_, ok := r.Get(j.ID)
	assert.False(t, ok)
}

func TestRegistryCleanupOldRemovesOnDiskArtifacts(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "job-out")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "en.php"), []byte("x"), 0o644))

	archivePath := filepath.Join(dir, "output.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("zip"), 0o644))
	tarPath := filepath.Join(dir, "voipnow.tar.gz")
	require.NoError(t, os.WriteFile(tarPath, []byte("tar"), 0o644))

	r := NewRegistry(nil, time.Millisecond, nil)
	defer r.Close()

	j, _ := NewJob("/in", outputDir, "")
	j.Start(1, 1)
	j.SetArchivePath(archivePath)
	j.Finish(StatusCompleted)
	past := time.Now().Add(-time.Hour)
	j.CompletedAt = &past
	r.Put(j)

	r.CleanupOld()

	_, err := os.Stat(outputDir)
	assert.True(t, os.IsNotExist(err), "output dir should be removed")
	_, err = os.Stat(archivePath)
	assert.True(t, os.IsNotExist(err), "archive zip should be removed")
	_, err = os.Stat(tarPath)
	assert.True(t, os.IsNotExist(err), "voipnow tarball should be removed")
}

func TestFileJobStorePersistsAcrossRegistries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	store, err := NewFileJobStore(path)
	require.NoError(t, err)

	r1 := NewRegistry(store, 0, nil)
	j, _ := NewJob("/in", "/out", "")
	r1.Put(j)
	r1.Close()

	store2, err := NewFileJobStore(path)
	require.NoError(t, err)
	r2 := NewRegistry(store2, 0, nil)
	defer r2.Close()

	got, ok := r2.Get(j.ID)
	require.True(t, ok)
	assert.Equal(t, j.ID, got.ID)
}
