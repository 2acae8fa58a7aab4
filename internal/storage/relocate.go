package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// RelocationState is the outcome of moving one file between status directories.
type RelocationState string

const (
	// StateMoved means the copy succeeded and the original was removed.
	StateMoved RelocationState = "moved"
	// StateInPlace means the file already sat in the destination directory.
	StateInPlace RelocationState = "already_in_place"
	// StateSourceMissing means there was nothing to copy.
	StateSourceMissing RelocationState = "source_missing"
	// StateCopyFailed means phase one failed; the original is untouched.
	StateCopyFailed RelocationState = "copy_failed"
	// StateDeleteFailed means the copy landed but the original remains, leaving a stale duplicate.
	StateDeleteFailed RelocationState = "delete_failed"
	// StateSkipped means no path was recorded for the file.
	StateSkipped RelocationState = "skipped"
)

// Outcome describes the relocation of a single file.
type Outcome struct {
	Source      string          `json:"source"`
	Destination string          `json:"destination"`
	State       RelocationState `json:"state"`
	Err         error           `json:"-"`
}

// OK reports whether the destination now holds the only copy of the file.
func (o Outcome) OK() bool {
	return o.State == StateMoved || o.State == StateInPlace || o.State == StateSkipped
}

// Relocation is the combined result for a model file and its sidecar.
type Relocation struct {
	File     Outcome `json:"file"`
	Metadata Outcome `json:"metadata"`
}

// OK reports whether both files relocated cleanly.
func (r Relocation) OK() bool {
	return r.File.OK() && r.Metadata.OK()
}

// Errors returns the non-nil errors of both outcomes.
func (r Relocation) Errors() []error {
	var errs []error
	if r.File.Err != nil {
		errs = append(errs, r.File.Err)
	}
	if r.Metadata.Err != nil {
		errs = append(errs, r.Metadata.Err)
	}
	return errs
}

// Relocate moves a job's model file and sidecar into the directory of status
// using copy-then-delete. Destination paths are always reported, even when a
// phase fails, so callers can record where the files are meant to be.
func (l Layout) Relocate(filePath, metadataPath string, status models.JobStatus) Relocation {
	root := l.RootFor(filePath)
	destDir := filepath.Join(root, status.Directory())

	var mkdirErr error
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		mkdirErr = fmt.Errorf("create destination %s: %w", destDir, err)
	}

	return Relocation{
		File:     relocateOne(filePath, destDir, mkdirErr),
		Metadata: relocateOne(metadataPath, destDir, mkdirErr),
	}
}

func relocateOne(src, destDir string, mkdirErr error) Outcome {
	if src == "" {
		return Outcome{State: StateSkipped}
	}

	dest := ResolvePath(filepath.Join(destDir, filepath.Base(src)))
	outcome := Outcome{Source: src, Destination: dest}

	if ResolvePath(src) == dest {
		outcome.State = StateInPlace
		return outcome
	}

	if !Exists(src) {
		outcome.State = StateSourceMissing
		return outcome
	}

	if mkdirErr != nil {
		outcome.State = StateCopyFailed
		outcome.Err = mkdirErr
		return outcome
	}

	if err := CopyFile(src, dest); err != nil {
		outcome.State = StateCopyFailed
		outcome.Err = err
		return outcome
	}

	if err := RemoveFile(src); err != nil {
		outcome.State = StateDeleteFailed
		outcome.Err = err
		return outcome
	}

	outcome.State = StateMoved
	return outcome
}
