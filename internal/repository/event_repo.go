package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// EventFilter narrows the analytics event feed.
type EventFilter struct {
	JobID     string
	EventType models.EventType
	Since     *time.Time
	Page      int
	PageSize  int
}

// EventRepository appends and reads job events. Events are never updated.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	ListByJob(ctx context.Context, jobID string) ([]models.Event, error)
	List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)
}

type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository constructs the event repository.
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) ListByJob(ctx context.Context, jobID string) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("timestamp ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (r *eventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Event{})

	if filter.JobID != "" {
		query = query.Where("job_id = ?", filter.JobID)
	}
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.Since != nil {
		query = query.Where("timestamp >= ?", *filter.Since)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var events []models.Event
	if err := query.Order("timestamp DESC, id DESC").Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
