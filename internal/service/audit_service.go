package service

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/observability"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

const sidecarSchema = `{
  "type": "object",
  "required": ["job_id", "status", "file_path", "history"],
  "properties": {
    "job_id": {"type": "string", "minLength": 1},
    "status": {"enum": ["UPLOADED", "PENDING", "READYTOPRINT", "PRINTING", "COMPLETED", "PAIDPICKEDUP", "REJECTED"]},
    "file_path": {"type": "string", "minLength": 1},
    "authoritative_filename": {"type": "string"},
    "history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["authoritative_filename", "changed_at"],
        "properties": {
          "authoritative_filename": {"type": "string", "minLength": 1},
          "changed_at": {"type": "string"},
          "changed_by": {"type": "string"},
          "event_type": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSidecarSchema = jsonschema.MustCompileString("sidecar.json", sidecarSchema)

// AuditService reconciles the storage tree against the job table.
type AuditService interface {
	Report(ctx context.Context) (dto.AuditReport, error)
	DeleteOrphan(ctx context.Context, path string, actor Actor) (dto.AuditDeleteResponse, error)
	DeleteStale(ctx context.Context, path string, actor Actor) (dto.AuditDeleteResponse, error)
}

type auditService struct {
	layout    storage.Layout
	jobs      repository.JobRepository
	events    EventService
	staff     StaffService
	publisher EventPublisher
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuditService constructs the storage auditor.
func NewAuditService(layout storage.Layout, jobs repository.JobRepository, events EventService, staff StaffService, publisher EventPublisher, logger zerolog.Logger) AuditService {
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	return &auditService{
		layout:    layout,
		jobs:      jobs,
		events:    events,
		staff:     staff,
		publisher: publisher,
		logger:    logger.With().Str("component", "audit_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/fablab-print-api/internal/service/audit"),
		now:       time.Now,
	}
}

// Report never modifies storage or the database.
func (s *auditService) Report(ctx context.Context) (dto.AuditReport, error) {
	ctx, span := s.tracer.Start(ctx, "audit.report")
	defer span.End()

	report, err := s.scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit failed")
		return dto.AuditReport{}, err
	}

	span.SetAttributes(
		attribute.Int("audit.orphaned_files", report.Summary.OrphanedFiles),
		attribute.Int("audit.broken_links", report.Summary.BrokenLinks),
		attribute.Int("audit.stale_files", report.Summary.StaleFiles),
	)
	observability.AuditIssues().WithLabelValues("orphaned_file").Add(float64(report.Summary.OrphanedFiles))
	observability.AuditIssues().WithLabelValues("stale_file").Add(float64(report.Summary.StaleFiles))
	for _, link := range report.BrokenLinks {
		for _, issue := range link.Issues {
			observability.AuditIssues().WithLabelValues(issue).Inc()
		}
	}
	return report, nil
}

func (s *auditService) scan(ctx context.Context) (dto.AuditReport, error) {
	files, err := s.layout.ListFiles()
	if err != nil {
		return dto.AuditReport{}, err
	}
	jobs, err := s.jobs.ListAll(ctx)
	if err != nil {
		return dto.AuditReport{}, err
	}

	known := make(map[string]struct{}, len(jobs)*2)
	for _, job := range jobs {
		for _, path := range []string{job.FilePath, job.MetadataPath} {
			if path != "" {
				known[storage.ResolvePath(path)] = struct{}{}
			}
		}
	}

	byName := make(map[string][]string)
	for _, file := range files {
		byName[filepath.Base(file)] = append(byName[filepath.Base(file)], file)
	}

	report := dto.AuditReport{
		ReportGeneratedAt: s.now().UTC(),
		OrphanedFiles:     make([]string, 0),
		BrokenLinks:       make([]dto.BrokenLink, 0),
		StaleFiles:        make([]dto.StaleFile, 0),
	}

	// Stale files are unreferenced too, so they also appear as orphans.
	stale := make(map[string]string)
	for _, job := range jobs {
		if link, broken := s.inspectJob(job); broken {
			report.BrokenLinks = append(report.BrokenLinks, link)
		}
		for _, path := range []string{job.FilePath, job.MetadataPath} {
			if path == "" {
				continue
			}
			resolved := storage.ResolvePath(path)
			for _, candidate := range byName[filepath.Base(path)] {
				if _, referenced := known[candidate]; candidate != resolved && !referenced {
					stale[candidate] = job.ID
				}
			}
		}
	}

	for _, file := range files {
		if _, ok := known[file]; !ok {
			report.OrphanedFiles = append(report.OrphanedFiles, file)
		}
	}

	for path, jobID := range stale {
		report.StaleFiles = append(report.StaleFiles, dto.StaleFile{Path: path, JobID: jobID})
	}
	sort.Slice(report.StaleFiles, func(i, j int) bool {
		return report.StaleFiles[i].Path < report.StaleFiles[j].Path
	})

	report.Summary = dto.AuditSummary{
		JobsScanned:   len(jobs),
		FilesScanned:  len(files),
		OrphanedFiles: len(report.OrphanedFiles),
		BrokenLinks:   len(report.BrokenLinks),
		StaleFiles:    len(report.StaleFiles),
	}
	return report, nil
}

func (s *auditService) inspectJob(job models.Job) (dto.BrokenLink, bool) {
	link := dto.BrokenLink{
		JobID:        job.ID,
		Status:       string(job.Status),
		Issues:       make([]string, 0),
		FilePath:     job.FilePath,
		MetadataPath: job.MetadataPath,
	}
	if job.Status != models.JobStatusRejected {
		link.ExpectedDir = job.Status.Directory()
	}
	if job.FilePath != "" {
		link.ActualDir = filepath.Base(filepath.Dir(job.FilePath))
	}

	fileExists := storage.Exists(job.FilePath)
	if !fileExists {
		link.Issues = append(link.Issues, dto.IssueFileMissing)
	}
	metaExists := storage.Exists(job.MetadataPath)
	if !metaExists {
		link.Issues = append(link.Issues, dto.IssueMetadataMissing)
	}

	if fileExists && link.ExpectedDir != "" && link.ActualDir != link.ExpectedDir {
		link.Issues = append(link.Issues, dto.IssueDirStatusMismatch)
	}

	if metaExists {
		if issue := s.inspectSidecar(job); issue != "" {
			link.Issues = append(link.Issues, issue)
		}
	}

	return link, len(link.Issues) > 0
}

func (s *auditService) inspectSidecar(job models.Job) string {
	raw, err := storage.ReadRaw(job.MetadataPath)
	if err != nil {
		return dto.IssueMetadataInvalid
	}
	if err := compiledSidecarSchema.Validate(raw); err != nil {
		return dto.IssueMetadataInvalid
	}

	meta, err := storage.ReadSidecar(job.MetadataPath)
	if err != nil {
		return dto.IssueMetadataInvalid
	}
	if meta.Status != string(job.Status) || storage.ResolvePath(meta.FilePath) != storage.ResolvePath(job.FilePath) {
		return dto.IssueMetadataMismatch
	}
	return ""
}

// DeleteOrphan removes a file no job references. The path must be classified
// as orphaned by a fresh scan at the time of the call.
func (s *auditService) DeleteOrphan(ctx context.Context, path string, actor Actor) (dto.AuditDeleteResponse, error) {
	resolved, err := s.authorizeRepair(ctx, path, actor)
	if err != nil {
		return dto.AuditDeleteResponse{}, err
	}

	report, err := s.scan(ctx)
	if err != nil {
		return dto.AuditDeleteResponse{}, err
	}
	if !containsString(report.OrphanedFiles, resolved) {
		return dto.AuditDeleteResponse{}, validationError("path", "is not an orphaned file")
	}

	if err := storage.RemoveFile(resolved); err != nil {
		return dto.AuditDeleteResponse{}, err
	}

	actor = actor.Normalized()
	s.logger.Info().Str("path", resolved).Str("staff_name", actor.StaffName).Msg("orphaned file deleted")
	s.publisher.Publish(ctx, models.Event{
		Timestamp:     s.now().UTC(),
		EventType:     models.EventStorageOrphanDeleted,
		Details:       map[string]interface{}{"path": resolved},
		TriggeredBy:   actor.Name(),
		WorkstationID: actor.WorkstationID,
	})
	return dto.AuditDeleteResponse{Path: resolved, Deleted: true}, nil
}

// DeleteStale removes a leftover copy of a job's file and records the repair on that job.
func (s *auditService) DeleteStale(ctx context.Context, path string, actor Actor) (dto.AuditDeleteResponse, error) {
	resolved, err := s.authorizeRepair(ctx, path, actor)
	if err != nil {
		return dto.AuditDeleteResponse{}, err
	}

	report, err := s.scan(ctx)
	if err != nil {
		return dto.AuditDeleteResponse{}, err
	}

	jobID := ""
	for _, item := range report.StaleFiles {
		if item.Path == resolved {
			jobID = item.JobID
			break
		}
	}
	if jobID == "" {
		return dto.AuditDeleteResponse{}, validationError("path", "is not a stale file")
	}

	if err := storage.RemoveFile(resolved); err != nil {
		return dto.AuditDeleteResponse{}, err
	}

	event, err := s.events.Record(ctx, EventEntry{
		JobID:   jobID,
		Type:    models.EventStorageStaleDeleted,
		Details: map[string]interface{}{"path": resolved},
		Actor:   actor,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("stale file deleted but event not recorded")
	} else {
		s.publisher.Publish(ctx, event)
	}

	return dto.AuditDeleteResponse{Path: resolved, JobID: jobID, Deleted: true}, nil
}

func (s *auditService) authorizeRepair(ctx context.Context, path string, actor Actor) (string, error) {
	if _, err := s.staff.RequireActive(ctx, actor.StaffName); err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", validationError("path", "is required")
	}
	resolved := storage.ResolvePath(path)
	if !s.layout.Contains(resolved) {
		return "", validationError("path", "is outside the storage status directories")
	}
	return resolved, nil
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
