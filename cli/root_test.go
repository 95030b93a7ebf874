package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hannes/pii-mask/pii/detectors"
)

func TestReadInputFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("山田太郎です。"), 0o600))

	got, err := readInput([]string{path})
	require.NoError(t, err)
	assert.Equal(t, "山田太郎です。", got)
}

func TestReadInputMissingFile(t *testing.T) {
	_, err := readInput([]string{filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, writeFile(path, "masked"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "masked", string(data))
}

func TestEntityDescriptionsCoverAllLabels(t *testing.T) {
	described := make(map[string]bool, len(entityDescriptions))
	for _, e := range entityDescriptions {
		assert.NotEmpty(t, e[1], "description for %s", e[0])
		described[e[0]] = true
	}
	for _, label := range detectors.SupportedLabels() {
		assert.True(t, described[label], "label %s has no description", label)
	}
}
