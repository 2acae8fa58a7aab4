package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/models"
	"github.com/noah-isme/fablab-print-api/internal/repository"
)

// EventEntry captures one event to append to a job's log.
type EventEntry struct {
	JobID   string
	Type    models.EventType
	Details map[string]interface{}
	Actor   Actor
}

// EventService appends to and reads the job event log.
type EventService interface {
	Record(ctx context.Context, entry EventEntry) (models.Event, error)
	WithTx(tx repository.Tx) EventService
	ListByJob(ctx context.Context, jobID string) ([]dto.EventResponse, error)
	List(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error)
}

type eventService struct {
	repo   repository.EventRepository
	logger zerolog.Logger
	now    func() time.Time
}

// NewEventService constructs the event log service.
func NewEventService(repo repository.EventRepository, logger zerolog.Logger) EventService {
	return &eventService{
		repo:   repo,
		logger: logger.With().Str("component", "event_service").Logger(),
		now:    time.Now,
	}
}

// WithTx returns a copy that writes through the transaction's repository.
func (s *eventService) WithTx(tx repository.Tx) EventService {
	clone := *s
	clone.repo = tx.Events
	return &clone
}

func (s *eventService) Record(ctx context.Context, entry EventEntry) (models.Event, error) {
	if strings.TrimSpace(entry.JobID) == "" {
		return models.Event{}, validationError("job_id", "is required")
	}
	if entry.Type == "" {
		return models.Event{}, validationError("event_type", "is required")
	}

	actor := entry.Actor.Normalized()
	event := models.Event{
		JobID:         entry.JobID,
		Timestamp:     s.now().UTC(),
		EventType:     entry.Type,
		Details:       sanitizeDetails(entry.Details),
		TriggeredBy:   actor.Name(),
		WorkstationID: actor.WorkstationID,
	}

	if err := s.repo.Create(ctx, &event); err != nil {
		s.logger.Error().Err(err).Str("job_id", entry.JobID).Str("event_type", string(entry.Type)).Msg("failed to persist job event")
		return models.Event{}, err
	}
	return event, nil
}

func (s *eventService) ListByJob(ctx context.Context, jobID string) ([]dto.EventResponse, error) {
	events, err := s.repo.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return dto.NewEventResponseSlice(events), nil
}

func (s *eventService) List(ctx context.Context, req dto.EventListRequest) (dto.EventListResponse, error) {
	filter := repository.EventFilter{
		JobID:     strings.TrimSpace(req.JobID),
		EventType: models.EventType(strings.TrimSpace(req.EventType)),
		Since:     req.Since,
		Page:      normalizePage(req.Page),
		PageSize:  clampPageSize(req.PageSize),
	}

	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.EventListResponse{}, err
	}

	return dto.EventListResponse{
		Items: dto.NewEventResponseSlice(events),
		Pagination: dto.PaginationMeta{
			Page:       filter.Page,
			PageSize:   filter.PageSize,
			TotalItems: total,
			TotalPages: calculateTotalPages(total, filter.PageSize),
		},
	}, nil
}

func sanitizeDetails(details map[string]interface{}) datatypes.JSONMap {
	sanitized := datatypes.JSONMap{}
	for key, value := range details {
		if strings.Contains(strings.ToLower(key), "token") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}
	return sanitized
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func calculateTotalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 1
	}
	pages := int(math.Ceil(float64(total) / float64(pageSize)))
	if pages == 0 {
		return 1
	}
	return pages
}
