package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
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

// DefaultUploadMaxBytes caps submissions when no limit is configured.
const DefaultUploadMaxBytes int64 = 50 * 1024 * 1024

var allowedModelExtensions = map[string]struct{}{
	"stl": {},
	"obj": {},
	"3mf": {},
}

// Binary payloads that can never be a model file, whatever the extension says.
var blockedMIMETypes = []string{
	"application/x-executable",
	"application/x-elf",
	"application/x-msdownload",
	"application/vnd.microsoft.portable-executable",
	"application/x-mach-binary",
	"application/x-sharedlib",
	"text/html",
	"application/pdf",
}

// Upload is a model file received from a student.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// SubmitService accepts new print requests.
type SubmitService interface {
	Submit(ctx context.Context, req dto.SubmitRequest, upload Upload) (dto.SubmitResponse, error)
}

type submitService struct {
	jobs      repository.JobRepository
	tx        repository.TxManager
	events    EventService
	files     FileSynchronizer
	mailer    Mailer
	publisher EventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	maxBytes  int64
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
	shortID   func() string
}

// shortIDAttempts bounds how often a colliding short id is regenerated.
const shortIDAttempts = 5

// NewSubmitService constructs the submission intake service.
func NewSubmitService(jobs repository.JobRepository, tx repository.TxManager, events EventService, files FileSynchronizer, mailer Mailer, publisher EventPublisher, validate *validator.Validate, maxBytes int64, logger zerolog.Logger) SubmitService {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &submitService{
		jobs:      jobs,
		tx:        tx,
		events:    events,
		files:     files,
		mailer:    mailer,
		publisher: publisher,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		maxBytes:  maxBytes,
		logger:    logger.With().Str("component", "submit_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/fablab-print-api/internal/service/submit"),
		now:       time.Now,
		newID:     func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		shortID:   func() string { return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]) },
	}
}

func (s *submitService) Submit(ctx context.Context, req dto.SubmitRequest, upload Upload) (dto.SubmitResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submit.create")
	defer span.End()

	resp, err := s.submit(ctx, span, req, upload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission refused")
	}
	return resp, err
}

func (s *submitService) submit(ctx context.Context, span trace.Span, req dto.SubmitRequest, upload Upload) (dto.SubmitResponse, error) {
	req = s.normalize(req)
	if err := s.validator.Struct(req); err != nil {
		observability.SubmissionsRejected().WithLabelValues("validation").Inc()
		return dto.SubmitResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	original := filepath.Base(strings.TrimSpace(upload.Filename))
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if upload.Content == nil || original == "." || original == "" {
		observability.SubmissionsRejected().WithLabelValues("missing_file").Inc()
		return dto.SubmitResponse{}, validationError("file", "is required")
	}
	if _, ok := allowedModelExtensions[ext]; !ok {
		observability.SubmissionsRejected().WithLabelValues("extension").Inc()
		return dto.SubmitResponse{}, validationError("file", "must be an .stl, .obj or .3mf model")
	}
	span.SetAttributes(attribute.String("submit.extension", ext), attribute.Int64("submit.request_size", upload.Size))

	if upload.Size > s.maxBytes {
		observability.SubmissionsRejected().WithLabelValues("size").Inc()
		return dto.SubmitResponse{}, ErrUploadTooLarge
	}

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(upload.Content, s.maxBytes+1)); err != nil {
		return dto.SubmitResponse{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(buf.Len()) > s.maxBytes {
		observability.SubmissionsRejected().WithLabelValues("size").Inc()
		return dto.SubmitResponse{}, ErrUploadTooLarge
	}
	if buf.Len() == 0 {
		observability.SubmissionsRejected().WithLabelValues("empty").Inc()
		return dto.SubmitResponse{}, validationError("file", "is empty")
	}
	data := buf.Bytes()

	detected := mimetype.Detect(data)
	for _, blocked := range blockedMIMETypes {
		if detected.Is(blocked) {
			observability.SubmissionsRejected().WithLabelValues("type").Inc()
			return dto.SubmitResponse{}, validationError("file", "content is not a 3D model")
		}
	}
	span.SetAttributes(attribute.String("submit.detected_mime", detected.String()))

	hash := storage.Checksum(data)
	existing, err := s.jobs.FindActiveDuplicate(ctx, hash, req.StudentEmail)
	if err != nil {
		return dto.SubmitResponse{}, err
	}
	if existing != nil {
		observability.SubmissionsRejected().WithLabelValues("duplicate").Inc()
		return dto.SubmitResponse{}, &DuplicateJobError{ExistingJobID: existing.ID}
	}

	id := s.newID()
	shortID := s.shortID()
	layout := s.files.Layout()
	dir := layout.DirFor(models.JobStatusUploaded)
	filePath := filepath.Join(dir, id+"."+ext)
	metaPath := filepath.Join(dir, storage.MetadataFileName(id))

	if err := storage.WriteFileAtomic(filePath, data); err != nil {
		return dto.SubmitResponse{}, fmt.Errorf("store upload: %w", err)
	}

	displayName := strings.TrimSpace(s.sanitizer.Sanitize(original))
	if displayName == "" {
		displayName = id + "." + ext
	}

	job := models.Job{
		ID:                        id,
		ShortID:                   &shortID,
		StudentName:               req.StudentName,
		StudentEmail:              req.StudentEmail,
		Discipline:                req.Discipline,
		ClassNumber:               req.ClassNumber,
		OriginalFilename:          original,
		DisplayName:               displayName,
		FilePath:                  storage.ResolvePath(filePath),
		MetadataPath:              storage.ResolvePath(metaPath),
		FileHash:                  hash,
		Status:                    models.JobStatusUploaded,
		Printer:                   req.Printer,
		Color:                     req.Color,
		Material:                  req.Material,
		AcknowledgedMinimumCharge: req.AcknowledgedMinimumCharge,
		CreatedAt:                 s.now().UTC(),
	}

	var created models.Event
	for attempt := 1; ; attempt++ {
		created, err = s.insert(ctx, &job, EventEntry{
			JobID: job.ID,
			Type:  models.EventJobCreated,
			Details: map[string]interface{}{
				"original_filename": original,
				"file_hash":         hash,
				"size_bytes":        len(data),
				"detected_mime":     detected.String(),
			},
			Actor: Actor{StaffName: StudentActor, WorkstationID: PublicWorkstation},
		})
		if err == nil || !errors.Is(err, repository.ErrDuplicateKey) {
			break
		}
		dup, findErr := s.jobs.FindActiveDuplicate(ctx, hash, req.StudentEmail)
		if findErr == nil && dup != nil {
			err = &DuplicateJobError{ExistingJobID: dup.ID}
			break
		}
		// No active duplicate, so the short id collided with an existing job.
		if attempt == shortIDAttempts {
			err = fmt.Errorf("allocate short id: %w", err)
			break
		}
		s.logger.Warn().Str("job_id", job.ID).Str("short_id", shortID).Msg("short id collision, regenerating")
		shortID = s.shortID()
		job.ShortID = &shortID
	}
	if err != nil {
		if removeErr := storage.RemoveFile(filePath); removeErr != nil {
			s.logger.Warn().Err(removeErr).Str("path", filePath).Msg("failed to remove upload after rollback")
		}
		var dupErr *DuplicateJobError
		if errors.As(err, &dupErr) {
			observability.SubmissionsRejected().WithLabelValues("duplicate").Inc()
		}
		return dto.SubmitResponse{}, err
	}

	if err := s.files.SyncSidecar(ctx, job, nil); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to write sidecar")
	}
	s.publisher.Publish(ctx, created)

	if msg, err := SubmissionEmail(job); err == nil {
		s.mailer.Send(ctx, msg)
	}

	s.logger.Info().Str("job_id", job.ID).Str("short_id", shortID).Msg("job submitted")
	return dto.SubmitResponse{
		JobID:        job.ID,
		ShortID:      shortID,
		Status:       string(job.Status),
		DisplayName:  job.DisplayName,
		DetectedMIME: detected.String(),
	}, nil
}

func (s *submitService) normalize(req dto.SubmitRequest) dto.SubmitRequest {
	clean := func(v string) string {
		return strings.TrimSpace(s.sanitizer.Sanitize(v))
	}
	req.StudentName = clean(req.StudentName)
	req.StudentEmail = strings.ToLower(strings.TrimSpace(req.StudentEmail))
	req.Discipline = clean(req.Discipline)
	req.ClassNumber = clean(req.ClassNumber)
	req.Printer = clean(req.Printer)
	req.Color = clean(req.Color)
	req.Material = clean(req.Material)
	return req
}

// insert creates the job row and its creation event in one transaction.
func (s *submitService) insert(ctx context.Context, job *models.Job, entry EventEntry) (models.Event, error) {
	var created models.Event
	err := s.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Jobs.Create(ctx, job); err != nil {
			return err
		}
		event, err := s.events.WithTx(tx).Record(ctx, entry)
		created = event
		return err
	})
	return created, err
}
