package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// SubmitHandler serves the public student endpoints.
type SubmitHandler struct {
	submit service.SubmitService
	jobs   service.JobService
	logger zerolog.Logger
}

// NewSubmitHandler constructs the handler.
func NewSubmitHandler(submit service.SubmitService, jobs service.JobService, logger zerolog.Logger) *SubmitHandler {
	return &SubmitHandler{
		submit: submit,
		jobs:   jobs,
		logger: logger.With().Str("component", "submit_handler").Logger(),
	}
}

// Register wires the submission form and confirmation link. limit guards the
// upload route only.
func (h *SubmitHandler) Register(router fiber.Router, limit fiber.Handler) {
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("", limit, h.create)
	router.Get("/confirm/:token", h.confirm)
	router.Post("/confirm/:token", h.confirm)
}

func (h *SubmitHandler) create(c *fiber.Ctx) error {
	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid form submission")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	content, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file could not be read")
	}
	defer content.Close()

	result, err := h.submit.Submit(c.UserContext(), req, service.Upload{
		Filename: file.Filename,
		Size:     file.Size,
		Content:  content,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission received", result)
}

func (h *SubmitHandler) confirm(c *fiber.Ctx) error {
	result, err := h.jobs.Confirm(c.UserContext(), c.Params("token"))
	if err != nil {
		return handleError(c, h.logger, err)
	}

	message := "job confirmed"
	if result.AlreadyConfirmed {
		message = "job already confirmed"
	}
	return utils.SendSuccess(c, message, result)
}
