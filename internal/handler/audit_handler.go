package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// AuditHandler exposes the storage reconciliation report and its repair actions.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(service service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: service,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("/report", h.report)
	router.Post("/delete-orphan", h.deleteOrphan)
	router.Post("/delete-stale", h.deleteStale)
}

func (h *AuditHandler) report(c *fiber.Ctx) error {
	report, err := h.service.Report(c.UserContext())
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.OK(c, report, "audit report generated", report.Summary)
}

func (h *AuditHandler) deleteOrphan(c *fiber.Ctx) error {
	var req dto.AuditDeleteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	result, err := h.service.DeleteOrphan(c.UserContext(), req.Path, actorFromContext(c, req.StaffName))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "orphaned file deleted", result)
}

func (h *AuditHandler) deleteStale(c *fiber.Ctx) error {
	var req dto.AuditDeleteRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	result, err := h.service.DeleteStale(c.UserContext(), req.Path, actorFromContext(c, req.StaffName))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "stale file deleted", result)
}
