package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"keywordpulse/internal/session"
	"keywordpulse/pkg/chat"
	"keywordpulse/pkg/imageedit"
	"keywordpulse/pkg/keyword"
	"keywordpulse/pkg/provider"
	"keywordpulse/pkg/validation"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler turns every error returned by a route into a JSON body with a matching status.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	status, message := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.Path()).Debug("Responding with error")
	}
	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func statusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	var ae *keyword.AnalysisError
	switch {
	case validation.IsValidation(err):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrEntryNotFound):
		return fiber.StatusNotFound, err.Error()
	case errors.Is(err, chat.ErrBusy):
		return fiber.StatusConflict, err.Error()
	case errors.As(err, &ae):
		return fiber.StatusBadGateway, ae.Message
	case errors.Is(err, imageedit.ErrEditFailed):
		return fiber.StatusBadGateway, err.Error()
	case provider.IsProvider(err):
		return fiber.StatusBadGateway, "provider request failed"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
