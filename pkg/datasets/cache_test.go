package datasets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsRoot(t *testing.T) {
	assert.Equal(t, DefaultRoot(), New("").Root)
	assert.Equal(t, "/data/cache", New("/data/cache").Root)
	assert.Equal(t, []string{"/data/cache"}, New("/data/cache").Dirs())
	assert.Equal(t, defaultDirName, filepath.Base(DefaultRoot()))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	want := filepath.Join(root, "smith_2009", "rsn10.nii.gz")
	assert.Equal(t, want, c.Path("smith_2009", "rsn10.nii.gz"))

	_, err := c.Resolve("smith_2009", "rsn10.nii.gz")
	assert.ErrorIs(t, err, ErrNotCached)

	require.NoError(t, os.MkdirAll(filepath.Dir(want), 0755))
	require.NoError(t, os.WriteFile(want, []byte("x"), 0644))

	got, err := c.Resolve("smith_2009", "rsn10.nii.gz")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestList(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	_, err := c.List("brainomics_localizer")
	assert.ErrorIs(t, err, ErrNotCached)

	dir := filepath.Join(root, "brainomics_localizer", "brainomics_data")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "S02"), 0755))
	for _, name := range []string{"S02/tmap_b.nii.gz", "S01_tmap.nii", "README.txt", "S02/tmap_a.NII.GZ"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	files, err := c.List("brainomics_localizer")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "S01_tmap.nii"),
		filepath.Join(dir, "S02", "tmap_a.NII.GZ"),
		filepath.Join(dir, "S02", "tmap_b.nii.gz"),
	}, files)
}

func TestIsNifti(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a.nii", true},
		{"a.nii.gz", true},
		{"A.NII", true},
		{"a.gz", false},
		{"a.img", false},
		{"nii", false},
	}
	for _, c := range cases {
		if got := IsNifti(c.path); got != c.want {
			t.Errorf("IsNifti(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
