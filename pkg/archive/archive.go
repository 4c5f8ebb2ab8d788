// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive packages a translated output tree into the two
// artifacts a finished job produces: a plain output.zip of the tree
// as translated, and a voipnow.tar.gz secondary artifact shaped for
// that system's language-pack import format.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

const (
	outputZipName   = "output.zip"
	voipnowTarName  = "voipnow.tar.gz"
	versionScanSize = 8 * 1024
	defaultVersion  = "1.0.0"
)

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$version\s*=\s*"([0-9]+\.[0-9]+(?:\.[0-9]+)?)"`),
	regexp.MustCompile(`@version\s+([0-9]+\.[0-9]+(?:\.[0-9]+)?)`),
	regexp.MustCompile(`Version:\s*([0-9]+\.[0-9]+(?:\.[0-9]+)?)`),
}

// ArtifactPaths returns the paths Package writes into destDir, so
// callers that need to remove a job's packaged output (e.g. registry
// cleanup) don't have to know the artifact filenames themselves.
func ArtifactPaths(destDir string) []string {
	return []string{
		filepath.Join(destDir, outputZipName),
		filepath.Join(destDir, voipnowTarName),
	}
}

// Package builds output.zip and voipnow.tar.gz from outputDir's
// contents, writing both into destDir, and returns the path to
// output.zip.
func Package(outputDir, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("archive: create dest dir: %w", err)
	}

	zipPath := filepath.Join(destDir, outputZipName)
	if err := writeZip(outputDir, zipPath); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", outputZipName, err)
	}

	version, err := detectVersion(outputDir)
	if err != nil {
		return "", fmt.Errorf("archive: detect version: %w", err)
	}

	tarPath := filepath.Join(destDir, voipnowTarName)
	if err := writeVoipnowTarGz(outputDir, tarPath, version); err != nil {
		return "", fmt.Errorf("archive: write %s: %w", voipnowTarName, err)
	}

	return zipPath, nil
}

func writeZip(srcDir, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	return filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
}

func writeVoipnowTarGz(srcDir, tarPath, version string) error {
	f, err := os.Create(tarPath)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	meta := fmt.Sprintf("ISO: pt_br\nLanguage: Portuguese\nCharset: UTF-8\nVersion: %s\n", version)
	if err := writeTarEntry(tw, "language/meta", []byte(meta)); err != nil {
		return err
	}

	return filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		name := "language/pt_br/" + filepath.ToSlash(rel)
		return writeTarEntry(tw, name, content)
	})
}

func writeTarEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0o644,
		Size: int64(len(content)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

// detectVersion scans the first versionScanSize bytes of every file in
// tree for a version-looking string, in the order $version = "X.Y[.Z]",
// @version X.Y[.Z], Version: X.Y[.Z], returning the first match found.
// It falls back to defaultVersion.
func detectVersion(tree string) (string, error) {
	var found string
	err := filepath.WalkDir(tree, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		f, openErr := os.Open(path)
		if openErr != nil {
			return openErr
		}
		defer f.Close()

		buf := make([]byte, versionScanSize)
		n, readErr := io.ReadFull(f, buf)
		if readErr != nil && readErr != io.ErrUnexpectedEOF && readErr != io.EOF {
			return readErr
		}
		chunk := buf[:n]
		for _, re := range versionPatterns {
			if m := re.FindSubmatch(chunk); m != nil {
				found = string(m[1])
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		found = defaultVersion
	}
	return found, nil
}
