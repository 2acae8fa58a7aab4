package dto

import "time"

// DiagnosticsResponse summarises the queue by status.
type DiagnosticsResponse struct {
	JobCounts   map[string]int64 `json:"job_counts"`
	TotalJobs   int64            `json:"total_jobs"`
	GeneratedAt time.Time        `json:"generated_at"`
	Cached      bool             `json:"cached"`
}
