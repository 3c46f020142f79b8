package statedir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDir_CreatesDirectory(t *testing.T) {
	root := t.TempDir()

	path, err := Dir(root, "pipeline")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pipeline"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDir_IdempotentForExistingDirectory(t *testing.T) {
	root := t.TempDir()

	first, err := Dir(root, "pipeline")
	require.NoError(t, err)
	second, err := Dir(root, "pipeline")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDir_RejectsInvalidNames(t *testing.T) {
	root := t.TempDir()

	for _, name := range []string{"", ".", "..", "a/b", `a\b`} {
		_, err := Dir(root, name)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestDir_EmptyRoot(t *testing.T) {
	_, err := Dir("", "pipeline")
	assert.Error(t, err)
}

func TestDir_CreationFailureSurfaces(t *testing.T) {
	root := t.TempDir()
	// A regular file where the state dir should go makes MkdirAll fail.
	blocked := filepath.Join(root, "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

	_, err := Dir(blocked, "pipeline")
	assert.Error(t, err)
}
