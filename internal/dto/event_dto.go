package dto

import (
	"time"

	"github.com/noah-isme/fablab-print-api/internal/models"
)

// EventResponse describes one job event.
type EventResponse struct {
	ID            uint                   `json:"id"`
	JobID         string                 `json:"job_id"`
	Timestamp     time.Time              `json:"timestamp"`
	EventType     models.EventType       `json:"event_type"`
	Details       map[string]interface{} `json:"details"`
	TriggeredBy   string                 `json:"triggered_by"`
	WorkstationID string                 `json:"workstation_id"`
}

// NewEventResponse maps an event model.
func NewEventResponse(event models.Event) EventResponse {
	details := map[string]interface{}(event.Details)
	if details == nil {
		details = map[string]interface{}{}
	}
	return EventResponse{
		ID:            event.ID,
		JobID:         event.JobID,
		Timestamp:     event.Timestamp,
		EventType:     event.EventType,
		Details:       details,
		TriggeredBy:   event.TriggeredBy,
		WorkstationID: event.WorkstationID,
	}
}

// NewEventResponseSlice maps a list of events.
func NewEventResponseSlice(events []models.Event) []EventResponse {
	items := make([]EventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, NewEventResponse(event))
	}
	return items
}

// EventListRequest filters the analytics feed.
type EventListRequest struct {
	JobID     string
	EventType string
	Since     *time.Time
	Page      int
	PageSize  int
}

// EventListResponse wraps a page of events.
type EventListResponse struct {
	Items      []EventResponse `json:"items"`
	Pagination PaginationMeta  `json:"pagination"`
}
