package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMatrix(t *testing.T) {
	path := writeFile(t, `{
  "targets": {
    "K64F": ["GCC_ARM", "ARM"],
    "LPC1768": ["GCC_ARM"]
  },
  "test_ids": ["MBED_A1"]
}`)

	spec, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"K64F", "LPC1768"}, spec.TargetNames())
	assert.Equal(t, []string{"ARM", "GCC_ARM"}, spec.Toolchains())
	assert.True(t, spec.Includes("MBED_A1"))
	assert.False(t, spec.Includes("MBED_A2"))
}

func TestLoadMatrixInvalid(t *testing.T) {
	t.Run("no targets", func(t *testing.T) {
		_, err := LoadMatrix(writeFile(t, `{"targets": {}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid test specification")
	})

	t.Run("target without toolchains", func(t *testing.T) {
		_, err := LoadMatrix(writeFile(t, `{"targets": {"K64F": []}}`))
		require.Error(t, err)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := LoadMatrix(writeFile(t, "{\n  \"targets\": {\n    \"K64F\": [\"GCC_ARM\",]\n  }\n}"))
		var syntaxErr *SyntaxError
		require.True(t, errors.As(err, &syntaxErr))
		assert.Equal(t, 3, syntaxErr.Line)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadMatrix(filepath.Join(t.TempDir(), "missing.json"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not opened")
	})
}
