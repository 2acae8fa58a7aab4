package dto

import "time"

// Audit issue codes reported per job.
const (
	IssueFileMissing       = "file_missing"
	IssueMetadataMissing   = "metadata_missing"
	IssueDirStatusMismatch = "dir_status_mismatch"
	IssueMetadataMismatch  = "metadata_mismatch"
	IssueMetadataInvalid   = "metadata_invalid"
)

// BrokenLink lists the storage problems found for one job.
type BrokenLink struct {
	JobID        string   `json:"job_id" yaml:"job_id"`
	Status       string   `json:"status" yaml:"status"`
	Issues       []string `json:"issues" yaml:"issues"`
	FilePath     string   `json:"file_path" yaml:"file_path"`
	MetadataPath string   `json:"metadata_path" yaml:"metadata_path"`
	ExpectedDir  string   `json:"expected_dir" yaml:"expected_dir"`
	ActualDir    string   `json:"actual_dir" yaml:"actual_dir"`
}

// StaleFile is a copy of a job's file left outside its authoritative location.
type StaleFile struct {
	Path  string `json:"path" yaml:"path"`
	JobID string `json:"job_id" yaml:"job_id"`
}

// AuditSummary counts each finding category.
type AuditSummary struct {
	JobsScanned   int `json:"jobs_scanned" yaml:"jobs_scanned"`
	FilesScanned  int `json:"files_scanned" yaml:"files_scanned"`
	OrphanedFiles int `json:"orphaned_files" yaml:"orphaned_files"`
	BrokenLinks   int `json:"broken_links" yaml:"broken_links"`
	StaleFiles    int `json:"stale_files" yaml:"stale_files"`
}

// AuditReport is the read-only storage reconciliation result.
type AuditReport struct {
	ReportGeneratedAt time.Time    `json:"report_generated_at" yaml:"report_generated_at"`
	OrphanedFiles     []string     `json:"orphaned_files" yaml:"orphaned_files"`
	BrokenLinks       []BrokenLink `json:"broken_links" yaml:"broken_links"`
	StaleFiles        []StaleFile  `json:"stale_files" yaml:"stale_files"`
	Summary           AuditSummary `json:"summary" yaml:"summary"`
}

// AuditDeleteRequest names a file to remove during repair.
type AuditDeleteRequest struct {
	StaffName string `json:"staff_name"`
	Path      string `json:"path" validate:"required"`
}

// AuditDeleteResponse confirms a repair.
type AuditDeleteResponse struct {
	Path    string `json:"path"`
	JobID   string `json:"job_id,omitempty"`
	Deleted bool   `json:"deleted"`
}
