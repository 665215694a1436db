package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ErrorHandler renders API errors as {"error", "kind"} and hides every other error behind a generic 500.
func ErrorHandler(logger *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.HTTPStatus).JSON(errorResponse{Error: apiErr.Message, Kind: string(apiErr.Kind)})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(errorResponse{Error: fiberErr.Message, Kind: string(kindForStatus(fiberErr.Code))})
		}

		logger.Error("HTTP: unhandled error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error())

		internal := apierror.NewErrInternalServerError()
		return c.Status(internal.HTTPStatus).JSON(errorResponse{Error: internal.Message, Kind: string(internal.Kind)})
	}
}

func kindForStatus(status int) apierror.Kind {
	switch status {
	case fiber.StatusNotFound:
		return apierror.KindNotFound
	case fiber.StatusRequestEntityTooLarge:
		return apierror.KindPayloadTooLarge
	case fiber.StatusTooManyRequests:
		return apierror.KindRateLimited
	case fiber.StatusUnauthorized:
		return apierror.KindUnauthorized
	case fiber.StatusForbidden:
		return apierror.KindForbidden
	}
	if status >= fiber.StatusInternalServerError {
		return apierror.KindInternal
	}
	return apierror.KindBadRequest
}
