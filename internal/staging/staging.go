// Package staging downloads replay files next to their final location and
// moves them into place only once a whole match is present.
package staging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Downloader fetches url into dest.
type Downloader interface {
	Download(ctx context.Context, url string, dest io.Writer) (int64, error)
}

type Manager struct {
	baseDir     string
	stagingRoot string
}

func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir:     baseDir,
		stagingRoot: filepath.Join(baseDir, ".staging"),
	}
}

func (m *Manager) FinalDir(match string) string {
	return filepath.Join(m.baseDir, match)
}

func (m *Manager) StagingDir(match string) string {
	return filepath.Join(m.stagingRoot, match)
}

func (m *Manager) PrepareStaging(match string) error {
	return os.MkdirAll(m.StagingDir(match), 0750)
}

// Existing returns the path of name in the final match directory, or of its
// compressed variant, if either is already there.
func (m *Manager) Existing(match, name, compressedExt string) (string, bool) {
	for _, candidate := range []string{name, name + compressedExt} {
		path := filepath.Join(m.FinalDir(match), candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// DownloadToStaging writes url to destPath through a temp file so a partial
// download never looks complete.
func (m *Manager) DownloadToStaging(ctx context.Context, client Downloader, url, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
		return 0, fmt.Errorf("creating directories: %w", err)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	size, err := client.Download(ctx, url, f)
	if closeErr := f.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("downloading file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}

	return size, nil
}

// CommitStaging moves every staged file of match into the final directory
// and returns how many were moved. Files already in the final directory
// are kept.
func (m *Manager) CommitStaging(match string) (int, error) {
	stagingDir := m.StagingDir(match)
	finalDir := m.FinalDir(match)

	moved := 0
	err := filepath.Walk(stagingDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) == ".tmp" {
			return nil
		}

		relPath, err := filepath.Rel(stagingDir, path)
		if err != nil {
			return err
		}

		destPath := filepath.Join(finalDir, relPath)
		if err := os.MkdirAll(filepath.Dir(destPath), 0750); err != nil {
			return err
		}
		if err := os.Rename(path, destPath); err != nil {
			return err
		}
		moved++
		return nil
	})
	return moved, err
}

func (m *Manager) CleanupStaging(match string) error {
	if err := os.RemoveAll(m.StagingDir(match)); err != nil {
		return err
	}
	// Drop .staging itself once nothing else is in flight.
	_ = os.Remove(m.stagingRoot)
	return nil
}
