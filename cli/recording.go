package cli

// This file contains run recording functionality for saving run metadata
// and artifacts to the history directory.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hiltest/hiltest/history"
	"github.com/hiltest/hiltest/model"
)

// prepareHistoryDir creates .hiltest/history/<timestamp>-<commit>-<id> below
// the repository root and returns its path.
func (a *App) prepareHistoryDir(h *model.History) (string, error) {
	repoRoot, err := history.RepoRoot()
	if err != nil {
		return "", err
	}

	// Store the repository name and make the working directory relative
	if h.Git != nil {
		h.Git.Repo = filepath.Base(repoRoot)
	}
	relPath := "."
	if h.WorkDir != "" {
		if rel, err := filepath.Rel(repoRoot, h.WorkDir); err == nil {
			relPath = rel
		}
	}
	h.WorkDir = relPath

	runDir := filepath.Join(repoRoot, history.DirName, "history", history.RunDirName(h))
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return runDir, nil
}

func (a *App) recordHistory(h *model.History, runDir string, images []string) error {
	// Archive artifacts if they exist
	if err := a.saveArtifacts(runDir, h, images); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to save some artifacts")
		// Don't fail the run on artifact errors
	}

	if err := history.Write(runDir, h); err != nil {
		return err
	}

	a.logger.Debug().Str("dir", runDir).Str("id", h.ID).Msg("Recorded test run")
	return nil
}
