// Package storage owns the on-disk layout of submitted model files: one
// directory per job status under a common root, each model accompanied by a
// JSON metadata sidecar.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// Layout resolves status directories under a configured storage root.
type Layout struct {
	root string
}

// NewLayout builds a layout rooted at an absolute version of root.
func NewLayout(root string) (Layout, error) {
	if root == "" {
		return Layout{}, fmt.Errorf("storage root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Layout{}, fmt.Errorf("resolve storage root %s: %w", root, err)
	}
	return Layout{root: abs}, nil
}

// Root returns the configured absolute storage root.
func (l Layout) Root() string {
	return l.root
}

// DirFor returns the absolute directory that holds files for the status.
func (l Layout) DirFor(status models.JobStatus) string {
	return filepath.Join(l.root, status.Directory())
}

// EnsureDirs creates every status directory under the root.
func (l Layout) EnsureDirs() error {
	for _, name := range DirectoryNames() {
		dir := filepath.Join(l.root, name)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create status directory %s: %w", dir, err)
		}
	}
	return nil
}

// RootFor infers the storage root owning path: the grandparent when the file
// sits directly in a status directory, the configured root otherwise.
func (l Layout) RootFor(path string) string {
	parent := filepath.Dir(path)
	if IsStatusDir(filepath.Base(parent)) {
		return filepath.Dir(parent)
	}
	return l.root
}

// ListFiles returns the resolved paths of every regular file found directly
// inside a status directory. Missing directories are skipped.
func (l Layout) ListFiles() ([]string, error) {
	var files []string
	for _, name := range DirectoryNames() {
		dir := filepath.Join(l.root, name)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read status directory %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			files = append(files, ResolvePath(filepath.Join(dir, entry.Name())))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Contains reports whether path lives inside one of the status directories of this root.
func (l Layout) Contains(path string) bool {
	resolved := ResolvePath(path)
	parent := filepath.Dir(resolved)
	if !IsStatusDir(filepath.Base(parent)) {
		return false
	}
	return filepath.Dir(parent) == ResolvePath(l.root)
}

// DirectoryNames lists the status directory names in lifecycle order.
func DirectoryNames() []string {
	order := []models.JobStatus{
		models.JobStatusUploaded,
		models.JobStatusPending,
		models.JobStatusReadyToPrint,
		models.JobStatusPrinting,
		models.JobStatusCompleted,
		models.JobStatusPaidPickedUp,
	}
	names := make([]string, 0, len(order))
	for _, status := range order {
		names = append(names, models.StatusDirectories[status])
	}
	return names
}

// IsStatusDir reports whether name is one of the status directory names.
func IsStatusDir(name string) bool {
	for _, dir := range models.StatusDirectories {
		if dir == name {
			return true
		}
	}
	return false
}

// ResolvePath returns an absolute, symlink-free form of path when possible.
func ResolvePath(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	// The file may not exist yet; resolve its directory instead.
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}
