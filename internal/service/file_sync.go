package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/observability"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

// FileSynchronizer keeps a job's files and sidecar aligned with its status.
type FileSynchronizer interface {
	Layout() storage.Layout
	Relocate(ctx context.Context, job *models.Job, to models.JobStatus) storage.Relocation
	SyncSidecar(ctx context.Context, job models.Job, change *storage.HistoryEntry) error
	ResolveAuthoritative(job models.Job, filename string) (string, bool, error)
	RemoveJobFiles(ctx context.Context, job models.Job)
}

type fileSynchronizer struct {
	layout storage.Layout
	logger zerolog.Logger
	now    func() time.Time
}

// NewFileSynchronizer constructs a synchronizer over layout.
func NewFileSynchronizer(layout storage.Layout, logger zerolog.Logger) FileSynchronizer {
	return &fileSynchronizer{
		layout: layout,
		logger: logger.With().Str("component", "file_sync").Logger(),
		now:    time.Now,
	}
}

func (f *fileSynchronizer) Layout() storage.Layout {
	return f.layout
}

// Relocate moves the job's files into the directory for status and points the
// job at the destination paths whatever the filesystem outcome.
func (f *fileSynchronizer) Relocate(ctx context.Context, job *models.Job, to models.JobStatus) storage.Relocation {
	result := f.layout.Relocate(job.FilePath, job.MetadataPath, to)

	for _, outcome := range []storage.Outcome{result.File, result.Metadata} {
		if outcome.State == storage.StateSkipped {
			continue
		}
		observability.FileRelocations().WithLabelValues(string(outcome.State)).Inc()
		if !outcome.OK() {
			f.logger.Warn().
				Err(outcome.Err).
				Str("job_id", job.ID).
				Str("source", outcome.Source).
				Str("destination", outcome.Destination).
				Str("state", string(outcome.State)).
				Msg("file relocation incomplete")
		}
	}

	if result.File.Destination != "" {
		job.FilePath = result.File.Destination
	}
	if result.Metadata.Destination != "" {
		job.MetadataPath = result.Metadata.Destination
	}
	return result
}

// SyncSidecar rewrites the job's sidecar, keeping any history already on disk.
func (f *fileSynchronizer) SyncSidecar(ctx context.Context, job models.Job, change *storage.HistoryEntry) error {
	path := job.MetadataPath
	if path == "" {
		if job.FilePath == "" {
			return fmt.Errorf("job %s has no file path", job.ID)
		}
		path = filepath.Join(filepath.Dir(job.FilePath), storage.MetadataFileName(job.ID))
	}

	meta := &storage.Sidecar{}
	if storage.Exists(path) {
		existing, err := storage.ReadSidecar(path)
		if err != nil {
			f.logger.Warn().Err(err).Str("job_id", job.ID).Msg("replacing unreadable sidecar")
		} else {
			meta = existing
		}
	}

	meta.JobID = job.ID
	if job.ShortID != nil {
		meta.ShortID = *job.ShortID
	}
	meta.StudentName = job.StudentName
	meta.StudentEmail = job.StudentEmail
	meta.Discipline = job.Discipline
	meta.ClassNumber = job.ClassNumber
	meta.Printer = job.Printer
	meta.Color = job.Color
	meta.Material = job.Material
	meta.OriginalFilename = job.OriginalFilename
	meta.DisplayName = job.DisplayName
	meta.AuthoritativeFilename = filepath.Base(job.FilePath)
	meta.FilePath = storage.ResolvePath(job.FilePath)
	meta.Status = string(job.Status)
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = job.CreatedAt.UTC()
	}
	meta.UpdatedAt = f.now().UTC()
	if change != nil {
		meta.History = append(meta.History, *change)
	}

	if err := storage.WriteSidecar(path, meta); err != nil {
		return fmt.Errorf("write sidecar for job %s: %w", job.ID, err)
	}
	return nil
}

// ResolveAuthoritative returns the path of filename inside the job's current
// directory. changed is false when filename already names the current file.
func (f *fileSynchronizer) ResolveAuthoritative(job models.Job, filename string) (string, bool, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return job.FilePath, false, nil
	}
	if name == filepath.Base(job.FilePath) {
		return job.FilePath, false, nil
	}
	if strings.HasSuffix(name, storage.MetadataSuffix) {
		return "", false, validationError("authoritative_filename", "must name a model file")
	}

	candidate := filepath.Join(filepath.Dir(job.FilePath), name)
	if !storage.Exists(candidate) {
		return "", false, validationError("authoritative_filename", "does not exist in the job directory")
	}
	return storage.ResolvePath(candidate), true, nil
}

// RemoveJobFiles deletes the model and sidecar, logging failures.
func (f *fileSynchronizer) RemoveJobFiles(ctx context.Context, job models.Job) {
	for _, path := range []string{job.FilePath, job.MetadataPath} {
		if err := storage.RemoveFile(path); err != nil {
			f.logger.Warn().Err(err).Str("job_id", job.ID).Str("path", path).Msg("failed to remove job file")
		}
	}
}
