package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// AnalyticsHandler serves the event feed and queue diagnostics.
type AnalyticsHandler struct {
	events service.EventService
	stats  service.StatsService
	logger zerolog.Logger
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(events service.EventService, stats service.StatsService, logger zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		events: events,
		stats:  stats,
		logger: logger.With().Str("component", "analytics_handler").Logger(),
	}
}

// Register attaches the event feed.
func (h *AnalyticsHandler) Register(router fiber.Router) {
	router.Get("/events", h.listEvents)
}

func (h *AnalyticsHandler) listEvents(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page parameter")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size parameter")
	}

	req := dto.EventListRequest{
		JobID:     c.Query("job_id"),
		EventType: c.Query("event_type"),
		Page:      page,
		PageSize:  pageSize,
	}
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "since must be an RFC3339 timestamp")
		}
		req.Since = &since
	}

	result, err := h.events.List(c.UserContext(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.OK(c, result.Items, "events retrieved", result.Pagination)
}

// Diagnostics reports job counts by status.
func (h *AnalyticsHandler) Diagnostics(c *fiber.Ctx) error {
	result, err := h.stats.Diagnostics(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "diagnostics retrieved", result)
}
