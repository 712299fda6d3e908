package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"b.eqn", "a.eqn", "notes.txt", "sub/c.eqn"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("w : volt\n"), 0o644))
	}

	t.Run("directory walk is recursive, filtered, and sorted", func(t *testing.T) {
		files, err := FindFilesByExtension(dir, ".eqn")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "a.eqn"),
			filepath.Join(dir, "b.eqn"),
			filepath.Join(dir, "sub", "c.eqn"),
		}, files)
	})

	t.Run("a direct file path passes through", func(t *testing.T) {
		files, err := FindFilesByExtension(filepath.Join(dir, "notes.txt"), ".eqn")
		require.NoError(t, err)
		assert.Len(t, files, 1)
	})

	t.Run("no matches is an error", func(t *testing.T) {
		empty := t.TempDir()
		_, err := FindFilesByExtension(empty, ".eqn")
		assert.ErrorContains(t, err, "no .eqn files found")
	})

	t.Run("missing path is an error", func(t *testing.T) {
		_, err := FindFilesByExtension(filepath.Join(dir, "nope"), ".eqn")
		assert.Error(t, err)
	})
}
