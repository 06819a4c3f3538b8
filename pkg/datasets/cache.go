// Package datasets locates neuroimaging datasets in a local download cache.
// Nothing is fetched: callers point a Cache at a root directory and look up
// files that some other tool has already downloaded there.
package datasets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ErrNotCached is returned when a dataset file is absent from the cache.
var ErrNotCached = errors.New("dataset file not in cache")

// defaultDirName matches the directory nilearn uses under the home
// directory, so existing downloads are found without configuration.
const defaultDirName = "nilearn_data"

// Cache is a dataset cache rooted at a directory.
type Cache struct {
	Root string
}

// New returns a cache rooted at root, or at DefaultRoot when root is empty.
func New(root string) *Cache {
	if root == "" {
		root = DefaultRoot()
	}
	return &Cache{Root: root}
}

// DefaultRoot returns $HOME/nilearn_data, or a relative nilearn_data when
// the home directory is unknown.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// Dirs lists the directories searched for datasets.
func (c *Cache) Dirs() []string {
	return []string{c.Root}
}

// Path returns where a dataset file lives in the cache, whether or not it
// exists.
func (c *Cache) Path(dataset string, elem ...string) string {
	return filepath.Join(append([]string{c.Root, dataset}, elem...)...)
}

// Resolve returns the path of a cached dataset file.
func (c *Cache) Resolve(dataset string, elem ...string) (string, error) {
	path := c.Path(dataset, elem...)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotCached, path)
		}
		return "", err
	}
	return path, nil
}

// List returns the NIfTI files of a dataset in lexical order, searching
// its directory recursively.
func (c *Cache) List(dataset string) ([]string, error) {
	root := c.Path(dataset)
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotCached, root)
		}
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsNifti(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	log.WithFields(log.Fields{
		"dataset": dataset,
		"files":   len(files),
	}).Debug("Listed dataset")
	return files, nil
}

// IsNifti reports whether path has a .nii or .nii.gz extension.
func IsNifti(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".nii") || strings.HasSuffix(lower, ".nii.gz")
}
