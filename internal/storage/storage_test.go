package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

func newTestLayout(t *testing.T) Layout {
	t.Helper()
	layout, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, layout.EnsureDirs())
	return layout
}

func writeJobFiles(t *testing.T, layout Layout, status models.JobStatus, id string) (string, string) {
	t.Helper()
	dir := layout.DirFor(status)
	filePath := filepath.Join(dir, id+".stl")
	require.NoError(t, os.WriteFile(filePath, []byte("solid cube"), 0o640))
	metaPath := filepath.Join(dir, MetadataFileName(id))
	require.NoError(t, WriteSidecar(metaPath, &Sidecar{JobID: id, FilePath: filePath, Status: string(status)}))
	return filePath, metaPath
}

func TestRelocateMovesFileAndSidecar(t *testing.T) {
	layout := newTestLayout(t)
	filePath, metaPath := writeJobFiles(t, layout, models.JobStatusUploaded, "abc123")

	result := layout.Relocate(filePath, metaPath, models.JobStatusPending)
	require.True(t, result.OK())
	require.Equal(t, StateMoved, result.File.State)
	require.Equal(t, StateMoved, result.Metadata.State)

	require.False(t, Exists(filePath))
	require.False(t, Exists(metaPath))
	require.True(t, Exists(result.File.Destination))
	require.True(t, Exists(result.Metadata.Destination))
	require.Equal(t, ResolvePath(filepath.Join(layout.DirFor(models.JobStatusPending), "abc123.stl")), result.File.Destination)

	data, err := os.ReadFile(result.File.Destination)
	require.NoError(t, err)
	require.Equal(t, "solid cube", string(data))
}

func TestRelocateIsIdempotentWhenAlreadyInPlace(t *testing.T) {
	layout := newTestLayout(t)
	filePath, metaPath := writeJobFiles(t, layout, models.JobStatusPrinting, "job1")

	result := layout.Relocate(filePath, metaPath, models.JobStatusPrinting)
	require.True(t, result.OK())
	require.Equal(t, StateInPlace, result.File.State)
	require.Equal(t, StateInPlace, result.Metadata.State)
	require.True(t, Exists(filePath))
}

func TestRelocateReportsMissingSourceWithDestination(t *testing.T) {
	layout := newTestLayout(t)
	missing := filepath.Join(layout.DirFor(models.JobStatusUploaded), "gone.stl")

	result := layout.Relocate(missing, "", models.JobStatusPending)
	require.Equal(t, StateSourceMissing, result.File.State)
	require.Equal(t, StateSkipped, result.Metadata.State)
	require.False(t, result.OK())
	require.Contains(t, result.File.Destination, filepath.Join("Pending", "gone.stl"))
}

func TestRelocateCopyFailureLeavesSourceIntact(t *testing.T) {
	root := t.TempDir()
	layout, err := NewLayout(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Uploaded"), 0o750))
	// A regular file where the destination directory should be blocks the copy.
	require.NoError(t, os.WriteFile(filepath.Join(root, "Pending"), []byte("x"), 0o640))

	filePath, metaPath := writeJobFiles(t, layout, models.JobStatusUploaded, "blocked")

	result := layout.Relocate(filePath, metaPath, models.JobStatusPending)
	require.Equal(t, StateCopyFailed, result.File.State)
	require.Error(t, result.File.Err)
	require.Len(t, result.Errors(), 2)
	require.True(t, Exists(filePath))
	require.True(t, Exists(metaPath))
}

func TestRelocateUsesRootOfCurrentFile(t *testing.T) {
	layout := newTestLayout(t)
	other, err := NewLayout(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, other.EnsureDirs())

	filePath, metaPath := writeJobFiles(t, other, models.JobStatusUploaded, "elsewhere")
	result := layout.Relocate(filePath, metaPath, models.JobStatusPending)
	require.True(t, result.OK())
	require.Equal(t, ResolvePath(filepath.Join(other.DirFor(models.JobStatusPending), "elsewhere.stl")), result.File.Destination)
}

func TestRejectedStatusMapsToUploadDirectory(t *testing.T) {
	layout := newTestLayout(t)
	require.Equal(t, layout.DirFor(models.JobStatusUploaded), layout.DirFor(models.JobStatusRejected))
}

func TestSidecarRoundTripKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MetadataFileName("job42"))
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	meta := &Sidecar{
		JobID:                 "job42",
		AuthoritativeFilename: "job42_v2.3mf",
		Status:                "PENDING",
		History: []HistoryEntry{{
			AuthoritativeFilename: "job42_v2.3mf",
			ChangedAt:             now,
			ChangedBy:             "Jane Smith",
			EventType:             string(models.EventStaffApproved),
		}},
	}
	require.NoError(t, WriteSidecar(path, meta))
	require.False(t, Exists(path+tempSuffix))

	loaded, err := ReadSidecar(path)
	require.NoError(t, err)
	require.Equal(t, "job42_v2.3mf", loaded.AuthoritativeFilename)
	require.Len(t, loaded.History, 1)
	require.Equal(t, "Jane Smith", loaded.History[0].ChangedBy)
}

func TestListFilesSkipsForeignDirectories(t *testing.T) {
	layout := newTestLayout(t)
	writeJobFiles(t, layout, models.JobStatusUploaded, "a")
	require.NoError(t, os.MkdirAll(filepath.Join(layout.Root(), "Archive"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(layout.Root(), "Archive", "old.stl"), []byte("x"), 0o640))

	files, err := layout.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		require.True(t, layout.Contains(f))
	}
}

func TestChecksumIsStable(t *testing.T) {
	require.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Checksum([]byte("hello")))
}
