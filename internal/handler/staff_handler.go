package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// StaffHandler manages the staff directory.
type StaffHandler struct {
	service service.StaffService
	logger  zerolog.Logger
}

// NewStaffHandler constructs the handler.
func NewStaffHandler(service service.StaffService, logger zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		service: service,
		logger:  logger.With().Str("component", "staff_handler").Logger(),
	}
}

// Register attaches staff endpoints to the router group.
func (h *StaffHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Patch("/:name", h.update)
}

func (h *StaffHandler) list(c *fiber.Ctx) error {
	includeInactive := false
	if raw := c.Query("include_inactive"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid include_inactive parameter")
		}
		includeInactive = parsed
	}

	staff, err := h.service.List(c.UserContext(), includeInactive)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "staff retrieved", staff)
}

func (h *StaffHandler) create(c *fiber.Ctx) error {
	var req dto.StaffCreateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	member, err := h.service.Add(c.UserContext(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "staff member added", member)
}

func (h *StaffHandler) update(c *fiber.Ctx) error {
	var req dto.StaffUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	member, err := h.service.SetActive(c.UserContext(), pathParam(c, "name"), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "staff member updated", member)
}
