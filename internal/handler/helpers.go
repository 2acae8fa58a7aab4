package handler

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/fablab-print-api/internal/middleware"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

// parseBody decodes the request body when one is present.
func parseBody(c *fiber.Ctx, target interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(target)
}

func pathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(decoded)
	}
	return strings.TrimSpace(raw)
}

// actorFromContext combines the workstation from the JWT with the staff name cited in the body.
func actorFromContext(c *fiber.Ctx, staffName string) service.Actor {
	return service.Actor{
		StaffName:     staffName,
		WorkstationID: middleware.WorkstationFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(base, c)
	return &logger
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}

// handleError maps service errors onto HTTP statuses. Unexpected errors are
// logged with the request's correlation id and hidden behind a generic message.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var duplicate *service.DuplicateJobError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &duplicate):
		return utils.Fail(c, fiber.StatusConflict, "an active job already exists for this file", fiber.Map{
			"existing_job_id": duplicate.ExistingJobID,
		})
	case errors.Is(err, service.ErrDuplicateJob), errors.Is(err, service.ErrStaffExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrJobNotFound), errors.Is(err, service.ErrStaffNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrTokenExpired):
		return utils.SendError(c, fiber.StatusGone, "confirmation link has expired; ask the lab to resend it")
	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrDeleteNotAllowed):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	case errors.As(err, &invalid):
		return utils.Fail(c, fiber.StatusBadRequest, err.Error(), fiber.Map{"field": invalid.Field, "reason": invalid.Reason})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnauthorizedActor),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTokenInvalid),
		isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		requestLogger(logger, c).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
