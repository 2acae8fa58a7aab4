package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/observability"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

// JobService drives print jobs through their lifecycle.
type JobService interface {
	Get(ctx context.Context, id string) (dto.JobResponse, error)
	List(ctx context.Context, req dto.JobListRequest) (dto.JobListResponse, error)
	Events(ctx context.Context, id string) ([]dto.EventResponse, error)
	Approve(ctx context.Context, id string, actor Actor, req dto.ApproveRequest) (dto.JobResponse, error)
	Reject(ctx context.Context, id string, actor Actor, req dto.RejectRequest) (dto.JobResponse, error)
	Review(ctx context.Context, id string, actor Actor, req dto.ReviewRequest) (dto.JobResponse, error)
	Confirm(ctx context.Context, token string) (dto.ConfirmResponse, error)
	MarkPrinting(ctx context.Context, id string, actor Actor) (dto.JobResponse, error)
	MarkComplete(ctx context.Context, id string, actor Actor) (dto.JobResponse, error)
	MarkPickedUp(ctx context.Context, id string, actor Actor) (dto.JobResponse, error)
	RecordPayment(ctx context.Context, id string, actor Actor, req dto.PaymentRequest) (dto.JobResponse, error)
	UpdateNotes(ctx context.Context, id string, actor Actor, req dto.NotesRequest) (dto.JobResponse, error)
	ResendConfirmation(ctx context.Context, id string, actor Actor) (dto.JobResponse, error)
	Delete(ctx context.Context, id string) error
}

// JobDependencies groups the collaborators of the job service.
type JobDependencies struct {
	Jobs      repository.JobRepository
	Tx        repository.TxManager
	Events    EventService
	Staff     StaffService
	Files     FileSynchronizer
	Tokens    TokenService
	Mailer    Mailer
	Publisher EventPublisher
	Validator *validator.Validate
	// PublicBaseURL prefixes confirmation links sent to students.
	PublicBaseURL string
}

type jobService struct {
	jobs      repository.JobRepository
	tx        repository.TxManager
	events    EventService
	staff     StaffService
	files     FileSynchronizer
	tokens    TokenService
	mailer    Mailer
	publisher EventPublisher
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	baseURL   string
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewJobService constructs the job lifecycle service.
func NewJobService(deps JobDependencies, logger zerolog.Logger) JobService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = NewNopPublisher()
	}
	mailer := deps.Mailer
	if mailer == nil {
		mailer = NewLogMailer(logger)
	}
	return &jobService{
		jobs:      deps.Jobs,
		tx:        deps.Tx,
		events:    deps.Events,
		staff:     deps.Staff,
		files:     deps.Files,
		tokens:    deps.Tokens,
		mailer:    mailer,
		publisher: publisher,
		validator: deps.Validator,
		sanitizer: bluemonday.StrictPolicy(),
		baseURL:   strings.TrimRight(deps.PublicBaseURL, "/"),
		logger:    logger.With().Str("component", "job_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/fablab-print-api/internal/service/jobs"),
		now:       time.Now,
	}
}

// change describes one committed mutation of a job.
type change struct {
	from    models.JobStatus
	to      models.JobStatus
	actor   Actor
	entries []EventEntry
	history *storage.HistoryEntry
	// extra runs inside the transaction after the job row is saved.
	extra func(ctx context.Context, tx repository.Tx) error
}

func (s *jobService) Get(ctx context.Context, id string) (dto.JobResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return dto.JobResponse{}, err
	}
	return dto.NewJobResponse(job), nil
}

func (s *jobService) List(ctx context.Context, req dto.JobListRequest) (dto.JobListResponse, error) {
	status := models.JobStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != "" && !status.Valid() {
		return dto.JobListResponse{}, validationError("status", "is not a known job status")
	}

	filter := repository.JobFilter{
		Status:     status,
		Printer:    strings.TrimSpace(req.Printer),
		Discipline: strings.TrimSpace(req.Discipline),
		Search:     strings.TrimSpace(req.Search),
		Page:       normalizePage(req.Page),
		PageSize:   clampPageSize(req.PageSize),
	}

	jobs, total, err := s.jobs.List(ctx, filter)
	if err != nil {
		return dto.JobListResponse{}, err
	}

	items := make([]dto.JobResponse, 0, len(jobs))
	for _, job := range jobs {
		items = append(items, dto.NewJobResponse(job))
	}

	return dto.JobListResponse{
		Items: items,
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func (s *jobService) Events(ctx context.Context, id string) ([]dto.EventResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByJob(ctx, id)
}

func (s *jobService) Approve(ctx context.Context, id string, actor Actor, req dto.ApproveRequest) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.approve", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.prepare(ctx, id, actor, models.JobStatusUploaded)
	if err != nil {
		return dto.JobResponse{}, err
	}
	if err := s.validate(req); err != nil {
		return dto.JobResponse{}, err
	}

	material := job.Material
	if m := strings.TrimSpace(req.Material); m != "" {
		material = s.sanitizer.Sanitize(m)
	}
	cost, err := CalculateCost(material, req.WeightG, req.TimeHours)
	if err != nil {
		return dto.JobResponse{}, err
	}

	authoritative, reassigned, err := s.files.ResolveAuthoritative(job, req.AuthoritativeFilename)
	if err != nil {
		return dto.JobResponse{}, err
	}

	token, err := s.tokens.Issue(job.ID)
	if err != nil {
		return dto.JobResponse{}, fmt.Errorf("issue confirmation token: %w", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.tokens.MaxAge())
	weight, hours := req.WeightG, req.TimeHours
	job.Material = material
	job.WeightG = &weight
	job.TimeHours = &hours
	job.CostCents = &cost
	job.ConfirmToken = &token
	job.ConfirmTokenExpires = &expires
	job.ConfirmationLastSentAt = &now
	job.IsConfirmationExpired = false
	if job.StaffViewedAt == nil {
		job.StaffViewedAt = &now
	}

	details := map[string]interface{}{
		"weight_g":   weight,
		"time_hours": hours,
		"material":   material,
		"cost_cents": cost,
		"cost_usd":   float64(cost) / 100,
	}

	var history *storage.HistoryEntry
	if reassigned {
		job.FilePath = authoritative
		details["authoritative_filename"] = filepath.Base(authoritative)
		history = &storage.HistoryEntry{
			AuthoritativeFilename: filepath.Base(authoritative),
			ChangedAt:             now,
			ChangedBy:             actor.Normalized().Name(),
			EventType:             string(models.EventStaffApproved),
		}
	}

	err = s.commit(ctx, &job, change{
		from:    models.JobStatusUploaded,
		to:      models.JobStatusPending,
		actor:   actor,
		entries: []EventEntry{{Type: models.EventStaffApproved, Details: details}},
		history: history,
	})
	if err != nil {
		return dto.JobResponse{}, err
	}

	s.sendApproval(ctx, job, token, actor)
	return dto.NewJobResponse(job), nil
}

func (s *jobService) Reject(ctx context.Context, id string, actor Actor, req dto.RejectRequest) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.reject", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.prepare(ctx, id, actor, models.JobStatusUploaded)
	if err != nil {
		return dto.JobResponse{}, err
	}
	if err := s.validate(req); err != nil {
		return dto.JobResponse{}, err
	}

	reasons := make([]string, 0, len(req.Reasons)+1)
	for _, reason := range append(append([]string{}, req.Reasons...), req.CustomReason) {
		if clean := strings.TrimSpace(s.sanitizer.Sanitize(reason)); clean != "" {
			reasons = append(reasons, clean)
		}
	}
	if len(reasons) == 0 {
		return dto.JobResponse{}, validationError("reasons", "at least one reason is required")
	}

	now := s.now().UTC()
	job.RejectReasons = reasons
	if job.StaffViewedAt == nil {
		job.StaffViewedAt = &now
	}

	err = s.commit(ctx, &job, change{
		from:  models.JobStatusUploaded,
		to:    models.JobStatusRejected,
		actor: actor,
		entries: []EventEntry{{
			Type:    models.EventStaffRejected,
			Details: map[string]interface{}{"reasons": reasons},
		}},
	})
	if err != nil {
		return dto.JobResponse{}, err
	}

	s.sendBestEffort(ctx, job, RejectionEmail)
	return dto.NewJobResponse(job), nil
}

func (s *jobService) Review(ctx context.Context, id string, actor Actor, req dto.ReviewRequest) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.review", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.prepare(ctx, id, actor, models.JobStatusUploaded)
	if err != nil {
		return dto.JobResponse{}, err
	}

	eventType := models.EventJobReviewCleared
	if req.Reviewed {
		now := s.now().UTC()
		job.StaffViewedAt = &now
		eventType = models.EventJobReviewed
	} else {
		job.StaffViewedAt = nil
	}

	err = s.commit(ctx, &job, change{
		from:    models.JobStatusUploaded,
		to:      models.JobStatusUploaded,
		actor:   actor,
		entries: []EventEntry{{Type: eventType, Details: map[string]interface{}{"reviewed": req.Reviewed}}},
	})
	if err != nil {
		return dto.JobResponse{}, err
	}
	return dto.NewJobResponse(job), nil
}

// Confirm is reached through the emailed link and needs no staff actor.
func (s *jobService) Confirm(ctx context.Context, token string) (resp dto.ConfirmResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.confirm", "")
	defer func() { finishSpan(span, err) }()

	jobID, verifyErr := s.tokens.Verify(token, s.tokens.MaxAge())
	if errors.Is(verifyErr, ErrTokenInvalid) {
		return dto.ConfirmResponse{}, ErrTokenInvalid
	}
	span.SetAttributes(attribute.String("job.id", jobID))

	job, err := s.load(ctx, jobID)
	if err != nil {
		return dto.ConfirmResponse{}, err
	}

	if job.StudentConfirmed && confirmedStatus(job.Status) {
		return dto.ConfirmResponse{JobID: job.ID, Status: job.Status, AlreadyConfirmed: true}, nil
	}

	if errors.Is(verifyErr, ErrTokenExpired) {
		if job.Status == models.JobStatusPending && !job.IsConfirmationExpired {
			job.IsConfirmationExpired = true
			if saveErr := s.jobs.Save(ctx, &job); saveErr != nil {
				s.logger.Warn().Err(saveErr).Str("job_id", job.ID).Msg("failed to flag expired confirmation")
			}
		}
		return dto.ConfirmResponse{}, ErrTokenExpired
	}

	if job.Status != models.JobStatusPending {
		return dto.ConfirmResponse{}, ErrInvalidTransition
	}

	now := s.now().UTC()
	job.StudentConfirmed = true
	job.StudentConfirmedAt = &now
	job.IsConfirmationExpired = false

	student := Actor{StaffName: StudentActor, WorkstationID: PublicWorkstation}
	err = s.commit(ctx, &job, change{
		from:    models.JobStatusPending,
		to:      models.JobStatusReadyToPrint,
		actor:   student,
		entries: []EventEntry{{Type: models.EventStudentConfirmed, Details: map[string]interface{}{"confirmed_at": now}}},
	})
	if err != nil {
		return dto.ConfirmResponse{}, err
	}
	return dto.ConfirmResponse{JobID: job.ID, Status: job.Status}, nil
}

func (s *jobService) MarkPrinting(ctx context.Context, id string, actor Actor) (dto.JobResponse, error) {
	job, err := s.advance(ctx, "jobs.mark_printing", id, actor, models.JobStatusReadyToPrint, models.JobStatusPrinting, models.EventJobMarkedPrinting)
	if err != nil {
		return dto.JobResponse{}, err
	}
	return dto.NewJobResponse(job), nil
}

func (s *jobService) MarkComplete(ctx context.Context, id string, actor Actor) (dto.JobResponse, error) {
	job, err := s.advance(ctx, "jobs.mark_complete", id, actor, models.JobStatusPrinting, models.JobStatusCompleted, models.EventJobMarkedComplete)
	if err != nil {
		return dto.JobResponse{}, err
	}
	s.sendBestEffort(ctx, job, CompletionEmail)
	return dto.NewJobResponse(job), nil
}

func (s *jobService) MarkPickedUp(ctx context.Context, id string, actor Actor) (dto.JobResponse, error) {
	job, err := s.advance(ctx, "jobs.mark_picked_up", id, actor, models.JobStatusCompleted, models.JobStatusPaidPickedUp, models.EventJobMarkedPickedUp)
	if err != nil {
		return dto.JobResponse{}, err
	}
	return dto.NewJobResponse(job), nil
}

func (s *jobService) advance(ctx context.Context, spanName, id string, actor Actor, from, to models.JobStatus, eventType models.EventType) (job models.Job, err error) {
	ctx, span := s.startSpan(ctx, spanName, id)
	defer func() { finishSpan(span, err) }()

	job, err = s.prepare(ctx, id, actor, from)
	if err != nil {
		return models.Job{}, err
	}

	err = s.commit(ctx, &job, change{
		from:    from,
		to:      to,
		actor:   actor,
		entries: []EventEntry{{Type: eventType}},
	})
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

// RecordPayment charges the approved cost when one exists and falls back to
// pricing the weighed grams. Both figures are kept on the event.
func (s *jobService) RecordPayment(ctx context.Context, id string, actor Actor, req dto.PaymentRequest) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.record_payment", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.prepare(ctx, id, actor, models.JobStatusCompleted)
	if err != nil {
		return dto.JobResponse{}, err
	}
	req.TxnNo = strings.TrimSpace(req.TxnNo)
	req.PickedUpBy = strings.TrimSpace(s.sanitizer.Sanitize(req.PickedUpBy))
	if err := s.validate(req); err != nil {
		return dto.JobResponse{}, err
	}

	recomputed, err := PriceCentsForGrams(job.Material, req.Grams)
	if err != nil {
		return dto.JobResponse{}, err
	}
	price, source := recomputed, "grams"
	if job.CostCents != nil {
		price, source = *job.CostCents, "approved_cost"
	}

	staffName := actor.Normalized().Name()
	payment := models.Payment{
		JobID:       job.ID,
		Grams:       req.Grams,
		PriceCents:  price,
		TxnNo:       req.TxnNo,
		PickedUpBy:  req.PickedUpBy,
		PaidAt:      s.now().UTC(),
		PaidByStaff: staffName,
	}

	err = s.commit(ctx, &job, change{
		from:  models.JobStatusCompleted,
		to:    models.JobStatusPaidPickedUp,
		actor: actor,
		entries: []EventEntry{{
			Type: models.EventPaymentRecorded,
			Details: map[string]interface{}{
				"grams":            req.Grams,
				"price_cents":      price,
				"recomputed_cents": recomputed,
				"price_source":     source,
				"txn_no":           req.TxnNo,
				"picked_up_by":     req.PickedUpBy,
			},
		}},
		extra: func(ctx context.Context, tx repository.Tx) error {
			if err := tx.Payments.Create(ctx, &payment); err != nil {
				if errors.Is(err, repository.ErrDuplicateKey) {
					return ErrInvalidTransition
				}
				return err
			}
			return nil
		},
	})
	if err != nil {
		return dto.JobResponse{}, err
	}

	if price != recomputed {
		s.logger.Info().
			Str("job_id", job.ID).
			Int64("price_cents", price).
			Int64("recomputed_cents", recomputed).
			Msg("payment price differs from weighed grams")
	}

	job.Payment = &payment
	return dto.NewJobResponse(job), nil
}

func (s *jobService) UpdateNotes(ctx context.Context, id string, actor Actor, req dto.NotesRequest) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.update_notes", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.load(ctx, id)
	if err != nil {
		return dto.JobResponse{}, err
	}
	if _, err := s.staff.RequireActive(ctx, actor.StaffName); err != nil {
		return dto.JobResponse{}, err
	}
	if err := s.validate(req); err != nil {
		return dto.JobResponse{}, err
	}

	job.Notes = strings.TrimSpace(s.sanitizer.Sanitize(req.Notes))
	err = s.commit(ctx, &job, change{
		from:    job.Status,
		to:      job.Status,
		actor:   actor,
		entries: []EventEntry{{Type: models.EventJobNotesUpdated, Details: map[string]interface{}{"length": len(job.Notes)}}},
	})
	if err != nil {
		return dto.JobResponse{}, err
	}
	return dto.NewJobResponse(job), nil
}

func (s *jobService) ResendConfirmation(ctx context.Context, id string, actor Actor) (resp dto.JobResponse, err error) {
	ctx, span := s.startSpan(ctx, "jobs.resend_confirmation", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.prepare(ctx, id, actor, models.JobStatusPending)
	if err != nil {
		return dto.JobResponse{}, err
	}

	token, err := s.tokens.Issue(job.ID)
	if err != nil {
		return dto.JobResponse{}, fmt.Errorf("issue confirmation token: %w", err)
	}

	now := s.now().UTC()
	expires := now.Add(s.tokens.MaxAge())
	job.ConfirmToken = &token
	job.ConfirmTokenExpires = &expires
	job.ConfirmationLastSentAt = &now
	job.IsConfirmationExpired = false

	err = s.commit(ctx, &job, change{
		from:    models.JobStatusPending,
		to:      models.JobStatusPending,
		actor:   actor,
		entries: []EventEntry{{Type: models.EventConfirmationResent, Details: map[string]interface{}{"expires_at": expires}}},
	})
	if err != nil {
		return dto.JobResponse{}, err
	}

	s.sendApproval(ctx, job, token, actor)
	return dto.NewJobResponse(job), nil
}

// Delete hard deletes a job that has not yet been confirmed for printing.
func (s *jobService) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "jobs.delete", id)
	defer func() { finishSpan(span, err) }()

	job, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !job.Deletable() {
		return ErrDeleteNotAllowed
	}

	if err := s.jobs.Delete(ctx, job.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	s.files.RemoveJobFiles(ctx, job)
	s.logger.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("job deleted")
	return nil
}

func (s *jobService) load(ctx context.Context, id string) (models.Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Job{}, ErrJobNotFound
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Job{}, ErrJobNotFound
		}
		return models.Job{}, err
	}
	return job, nil
}

// prepare applies the shared precondition order: job lookup, source status, then actor.
func (s *jobService) prepare(ctx context.Context, id string, actor Actor, from models.JobStatus) (models.Job, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return models.Job{}, err
	}
	if job.Status.Terminal() {
		return models.Job{}, fmt.Errorf("%w: job is %s and cannot change", ErrInvalidTransition, job.Status)
	}
	if job.Status != from {
		return models.Job{}, fmt.Errorf("%w: job is %s, expected %s", ErrInvalidTransition, job.Status, from)
	}
	if _, err := s.staff.RequireActive(ctx, actor.StaffName); err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func (s *jobService) validate(payload interface{}) error {
	if s.validator == nil {
		return nil
	}
	if err := s.validator.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// commit applies the guarded status update, row save and events in one
// transaction. Files move only once that transaction has committed, so a
// rollback never strands them in the target directory.
func (s *jobService) commit(ctx context.Context, job *models.Job, c change) error {
	actor := c.actor.Normalized()
	name := actor.Name()
	var recorded []models.Event

	err := s.tx.WithinTransaction(ctx, func(tx repository.Tx) error {
		if err := tx.Jobs.TransitionStatus(ctx, job.ID, c.from, c.to); err != nil {
			if errors.Is(err, repository.ErrStaleStatus) {
				return fmt.Errorf("%w: job %s left %s concurrently", ErrInvalidTransition, job.ID, c.from)
			}
			return err
		}

		saved := *job
		saved.Status = c.to
		saved.LastUpdatedBy = &name
		saved.UpdatedAt = s.now().UTC()
		if err := tx.Jobs.Save(ctx, &saved); err != nil {
			return err
		}

		if c.extra != nil {
			if err := c.extra(ctx, tx); err != nil {
				return err
			}
		}

		events := s.events.WithTx(tx)
		for _, entry := range c.entries {
			entry.JobID = job.ID
			entry.Actor = actor
			event, err := events.Record(ctx, entry)
			if err != nil {
				return err
			}
			recorded = append(recorded, event)
		}
		*job = saved
		return nil
	})
	if err != nil {
		return err
	}

	if c.from != c.to {
		observability.JobTransitions().WithLabelValues(string(c.from), string(c.to)).Inc()
	}
	if c.from.Directory() != c.to.Directory() {
		if event, ok := s.relocate(ctx, job, c.to, actor); ok {
			recorded = append(recorded, event)
		}
	}
	if err := s.files.SyncSidecar(ctx, *job, c.history); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to sync sidecar")
	}
	for _, event := range recorded {
		s.publisher.Publish(ctx, event)
	}
	return nil
}

// relocate moves a committed job's files and persists the destination paths.
// A failed move is recorded as an event and never undoes the transition.
func (s *jobService) relocate(ctx context.Context, job *models.Job, to models.JobStatus, actor Actor) (models.Event, bool) {
	relocation := s.files.Relocate(ctx, job, to)
	if err := s.jobs.UpdatePaths(ctx, job.ID, job.FilePath, job.MetadataPath); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist relocated paths")
	}
	if relocation.OK() {
		return models.Event{}, false
	}

	event, err := s.events.Record(ctx, EventEntry{
		JobID: job.ID,
		Type:  models.EventFileRelocationFailed,
		Details: map[string]interface{}{
			"target_status":  string(to),
			"file_state":     string(relocation.File.State),
			"metadata_state": string(relocation.Metadata.State),
			"file_path":      relocation.File.Destination,
		},
		Actor: actor,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to record relocation failure")
		return models.Event{}, false
	}
	return event, true
}

func (s *jobService) sendApproval(ctx context.Context, job models.Job, token string, actor Actor) {
	msg, err := ApprovalEmail(job, s.confirmURL(token), int(s.tokens.MaxAge().Hours()))
	delivered := false
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to render approval email")
	} else {
		delivered = s.mailer.Send(ctx, msg)
	}

	eventType := models.EventApprovalEmailSent
	if !delivered {
		eventType = models.EventApprovalEmailFailed
	}
	event, err := s.events.Record(ctx, EventEntry{
		JobID:   job.ID,
		Type:    eventType,
		Details: map[string]interface{}{"recipient": job.StudentEmail, "delivered": delivered},
		Actor:   actor,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("failed to record approval email event")
		return
	}
	s.publisher.Publish(ctx, event)
}

func (s *jobService) sendBestEffort(ctx context.Context, job models.Job, build func(models.Job) (Message, error)) {
	msg, err := build(job)
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to render email")
		return
	}
	s.mailer.Send(ctx, msg)
}

func (s *jobService) confirmURL(token string) string {
	return s.baseURL + "/api/v1/submit/confirm/" + token
}

func (s *jobService) startSpan(ctx context.Context, name, jobID string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, name)
	if jobID != "" {
		span.SetAttributes(attribute.String("job.id", jobID))
	}
	return ctx, span
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func confirmedStatus(status models.JobStatus) bool {
	switch status {
	case models.JobStatusReadyToPrint, models.JobStatusPrinting, models.JobStatusCompleted, models.JobStatusPaidPickedUp:
		return true
	}
	return false
}

