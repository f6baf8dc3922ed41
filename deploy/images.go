package deploy

// images.go contains the image selection patch for multi-image boards.

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hiltest/hiltest/model"
)

const (
	// ImagesFileName is the image selection file below the device's images_config directory.
	ImagesFileName = "images.txt"
	// TestStamp marks entries written by the patch.
	TestStamp = "test suite entry"
)

var (
	totalImagesRe = regexp.MustCompile(`^TOTALIMAGES:[\t ]*\d+`)
	stampedRe     = regexp.MustCompile(`; - ` + regexp.QuoteMeta(TestStamp) + `[\n\r]*$`)
	imageFileRe   = regexp.MustCompile(`^IMAGE\d+FILE`)
)

// patcher updates a board's image selection after deployment.
type patcher func(device model.Device, deployedImage string) bool

func boardPatches() map[string]patcher {
	return map[string]patcher{
		"ARM_MPS2": func(device model.Device, deployedImage string) bool {
			return PatchImagesConfig(filepath.Join(device.Disk, device.ImagesConfig, ImagesFileName), deployedImage)
		},
	}
}

// PatchImagesConfig rewrites the image selection file at path so the board
// boots exactly one image, image. Existing image entries are commented out,
// earlier stamped entries are removed and TOTALIMAGES is set to 1. Applying it
// repeatedly yields the same file. The original is left untouched when the
// file cannot be read or written.
func PatchImagesConfig(path, image string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	var out bytes.Buffer
	r := bufio.NewReader(bytes.NewReader(data))
	last := ""
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			switch {
			case strings.HasPrefix(line, "TOTALIMAGES"):
				line = totalImagesRe.ReplaceAllString(line, "TOTALIMAGES: 1")
			case stampedRe.MatchString(line):
				line = ""
			case imageFileRe.MatchString(line):
				line = ";" + line
			}
			if line != "" {
				out.WriteString(line)
				last = line
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return false
		}
	}

	if last != "" && last[len(last)-1] != '\n' {
		out.WriteString("\r\n")
	}
	out.WriteString("IMAGE0FILE: " + image + "    ; - " + TestStamp + "\r\n")

	return writeReplace(path, out.Bytes())
}

// writeReplace writes data next to path and renames it into place.
func writeReplace(path string, data []byte) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return false
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return false
	}
	if err := tmp.Close(); err != nil {
		return false
	}
	_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	return os.Rename(tmp.Name(), path) == nil
}
