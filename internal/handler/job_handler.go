package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/dto"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

// JobHandler exposes the staff job queue.
type JobHandler struct {
	service service.JobService
	logger  zerolog.Logger
}

// NewJobHandler constructs the handler.
func NewJobHandler(service service.JobService, logger zerolog.Logger) *JobHandler {
	return &JobHandler{
		service: service,
		logger:  logger.With().Str("component", "job_handler").Logger(),
	}
}

// Register attaches job endpoints to the router group.
func (h *JobHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/events", h.events)
	router.Post("/:id/approve", h.approve)
	router.Post("/:id/reject", h.reject)
	router.Post("/:id/review", h.review)
	router.Post("/:id/mark-printing", h.markPrinting)
	router.Post("/:id/mark-complete", h.markComplete)
	router.Post("/:id/mark-picked-up", h.markPickedUp)
	router.Post("/:id/payment", h.payment)
	router.Post("/:id/notes", h.notes)
	router.Post("/:id/resend-confirmation", h.resendConfirmation)
	router.Delete("/:id", h.delete)
}

func (h *JobHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page parameter")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page_size parameter")
	}

	result, err := h.service.List(c.UserContext(), dto.JobListRequest{
		Status:     c.Query("status"),
		Printer:    c.Query("printer"),
		Discipline: c.Query("discipline"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.OK(c, result.Items, "jobs retrieved", result.Pagination)
}

func (h *JobHandler) get(c *fiber.Ctx) error {
	job, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "job retrieved", job)
}

func (h *JobHandler) events(c *fiber.Ctx) error {
	events, err := h.service.Events(c.UserContext(), c.Params("id"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "job events retrieved", events)
}

func (h *JobHandler) approve(c *fiber.Ctx) error {
	var req dto.ApproveRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := h.service.Approve(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "job approved", job)
}

func (h *JobHandler) reject(c *fiber.Ctx) error {
	var req dto.RejectRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := h.service.Reject(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "job rejected", job)
}

func (h *JobHandler) review(c *fiber.Ctx) error {
	req := dto.ReviewRequest{Reviewed: true}
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := h.service.Review(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "job review updated", job)
}

func (h *JobHandler) markPrinting(c *fiber.Ctx) error {
	return h.transition(c, "job marked printing", h.service.MarkPrinting)
}

func (h *JobHandler) markComplete(c *fiber.Ctx) error {
	return h.transition(c, "job marked complete", h.service.MarkComplete)
}

func (h *JobHandler) markPickedUp(c *fiber.Ctx) error {
	return h.transition(c, "job marked picked up", h.service.MarkPickedUp)
}

func (h *JobHandler) resendConfirmation(c *fiber.Ctx) error {
	return h.transition(c, "confirmation resent", h.service.ResendConfirmation)
}

type staffTransition func(ctx context.Context, id string, actor service.Actor) (dto.JobResponse, error)

func (h *JobHandler) transition(c *fiber.Ctx, message string, apply staffTransition) error {
	var req dto.StaffAction
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := apply(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, message, job)
}

func (h *JobHandler) payment(c *fiber.Ctx) error {
	var req dto.PaymentRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := h.service.RecordPayment(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "payment recorded", job)
}

func (h *JobHandler) notes(c *fiber.Ctx) error {
	var req dto.NotesRequest
	if err := parseBody(c, &req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	job, err := h.service.UpdateNotes(c.UserContext(), c.Params("id"), actorFromContext(c, req.StaffName), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "notes updated", job)
}

func (h *JobHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return handleError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
