package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mriregdata/internal/models"
)

func TestGlobSortsMatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.nii", "a.nii", "b.nii", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	got, err := Glob(filepath.Join(dir, "*.nii"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.nii"),
		filepath.Join(dir, "b.nii"),
		filepath.Join(dir, "c.nii"),
	}, got)
}

func TestGlobNoMatches(t *testing.T) {
	_, err := Glob(filepath.Join(t.TempDir(), "*.nii"))
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}
