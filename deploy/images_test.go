package deploy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mps2Images = "TITLE: Versatile Express Images Configuration File\r\n" +
	"[IMAGES]\r\n" +
	"TOTALIMAGES: 3                    ;Number of Images (Max: 32)\r\n" +
	"IMAGE0ADDRESS: 0x00000000\r\n" +
	"IMAGE0FILE: \\SOFTWARE\\blinky.axf\r\n" +
	"IMAGE1ADDRESS: 0x00000000\r\n" +
	"IMAGE1FILE: \\SOFTWARE\\rtx.axf\r\n" +
	"IMAGE2FILE: \\SOFTWARE\\old.bin    ; - test suite entry\r\n"

func writeImages(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ImagesFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readImages(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func activeEntries(content string) []string {
	var entries []string
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "IMAGE") && strings.Contains(line, "FILE") {
			entries = append(entries, strings.TrimRight(line, "\r"))
		}
	}
	return entries
}

func TestPatchImagesConfig(t *testing.T) {
	path := writeImages(t, mps2Images)

	require.True(t, PatchImagesConfig(path, "/mnt/MPS2/SOFTWARE/basic.bin"))

	expected := "TITLE: Versatile Express Images Configuration File\r\n" +
		"[IMAGES]\r\n" +
		"TOTALIMAGES: 1                    ;Number of Images (Max: 32)\r\n" +
		"IMAGE0ADDRESS: 0x00000000\r\n" +
		";IMAGE0FILE: \\SOFTWARE\\blinky.axf\r\n" +
		"IMAGE1ADDRESS: 0x00000000\r\n" +
		";IMAGE1FILE: \\SOFTWARE\\rtx.axf\r\n" +
		"IMAGE0FILE: /mnt/MPS2/SOFTWARE/basic.bin    ; - test suite entry\r\n"
	assert.Equal(t, expected, readImages(t, path))
}

func TestPatchImagesConfigIdempotent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "original file", content: mps2Images},
		{name: "no trailing newline", content: "TOTALIMAGES: 2\nIMAGE0FILE: a.axf\nIMAGE1FILE: b.axf"},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImages(t, tt.content)

			require.True(t, PatchImagesConfig(path, "/mnt/MPS2/first.bin"))
			require.True(t, PatchImagesConfig(path, "/mnt/MPS2/second.bin"))
			once := readImages(t, path)

			require.True(t, PatchImagesConfig(path, "/mnt/MPS2/second.bin"))
			assert.Equal(t, once, readImages(t, path))

			assert.Equal(t, []string{"IMAGE0FILE: /mnt/MPS2/second.bin    ; - test suite entry"}, activeEntries(once))
			assert.NotContains(t, once, "first.bin")
			if strings.Contains(tt.content, "TOTALIMAGES") {
				assert.Contains(t, once, "TOTALIMAGES: 1")
				assert.NotContains(t, once, "TOTALIMAGES: 2")
			}
		})
	}
}

func TestPatchImagesConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", ImagesFileName)
	assert.False(t, PatchImagesConfig(path, "/mnt/MPS2/basic.bin"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
