package cli

// This file contains artifact management functionality for archiving
// firmware images and log files to the history directory.

import (
	"crypto/sha256"
	"encoding/base32"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"github.com/otiai10/copy"

	"github.com/hiltest/hiltest/model"
)

// logArtifact is the file name of the archived log.
const logArtifact = "hiltest.log"

// imageArtifactName returns <hash>.<basename>.image for the image content.
func imageArtifactName(path string, data []byte) string {
	hashBytes := sha256.Sum256(data)
	hash := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(hashBytes[:]))
	return hash + "." + filepath.Base(path) + ".image"
}

func (a *App) saveArtifacts(runDir string, h *model.History, images []string) error {
	var result *multierror.Error
	saved := make(map[string]struct{})

	for _, image := range images {
		data, err := os.ReadFile(image)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}

		// Same content deployed on several loops or devices is stored once
		name := imageArtifactName(image, data)
		if _, ok := saved[name]; ok {
			continue
		}
		if err := os.WriteFile(filepath.Join(runDir, name), data, 0644); err != nil {
			result = multierror.Append(result, err)
			continue
		}
		saved[name] = struct{}{}

		h.Artifacts = append(h.Artifacts, model.Artifact{
			Type: model.ArtifactTypeImage,
			Size: uint64(len(data)),
			File: name,
		})
		a.logger.Debug().
			Str("image", image).
			Str("dest", name).
			Str("size", humanize.Bytes(uint64(len(data)))).
			Msg("Saved firmware image")
	}

	if a.logPath != "" {
		if info, err := os.Stat(a.logPath); err == nil {
			if err := copy.Copy(a.logPath, filepath.Join(runDir, logArtifact)); err != nil {
				result = multierror.Append(result, err)
			} else {
				h.Artifacts = append(h.Artifacts, model.Artifact{
					Type: model.ArtifactTypeLog,
					Size: uint64(info.Size()),
					File: logArtifact,
				})
			}
		}
	}

	return result.ErrorOrNil()
}
