package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// MetadataSuffix is appended to the job id to name its sidecar file.
const MetadataSuffix = "_metadata.json"

// MetadataFileName returns the sidecar file name for a job.
func MetadataFileName(jobID string) string {
	return jobID + MetadataSuffix
}

// HistoryEntry records one reassignment of a job's authoritative file.
type HistoryEntry struct {
	AuthoritativeFilename string    `json:"authoritative_filename"`
	ChangedAt             time.Time `json:"changed_at"`
	ChangedBy             string    `json:"changed_by"`
	EventType             string    `json:"event_type"`
}

// Sidecar is the JSON document kept next to each authoritative model file.
// It mirrors a subset of the job row so the storage tree can be inspected
// without the database.
type Sidecar struct {
	JobID                 string         `json:"job_id"`
	ShortID               string         `json:"short_id,omitempty"`
	StudentName           string         `json:"student_name"`
	StudentEmail          string         `json:"student_email"`
	Discipline            string         `json:"discipline"`
	ClassNumber           string         `json:"class_number"`
	Printer               string         `json:"printer"`
	Color                 string         `json:"color"`
	Material              string         `json:"material"`
	OriginalFilename      string         `json:"original_filename"`
	DisplayName           string         `json:"display_name"`
	AuthoritativeFilename string         `json:"authoritative_filename"`
	FilePath              string         `json:"file_path"`
	Status                string         `json:"status"`
	History               []HistoryEntry `json:"history"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// WriteSidecar atomically replaces the sidecar at path.
func WriteSidecar(path string, meta *Sidecar) error {
	if meta.History == nil {
		meta.History = []HistoryEntry{}
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	return WriteFileAtomic(path, data)
}

// ReadSidecar loads and decodes the sidecar at path.
func ReadSidecar(path string) (*Sidecar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}

	var meta Sidecar
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return &meta, nil
}

// ReadRaw loads the sidecar as a generic JSON value, for schema validation.
func ReadRaw(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return raw, nil
}
