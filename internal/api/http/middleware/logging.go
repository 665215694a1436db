package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/community-board-server/internal/logger"
)

// Logging logs every HTTP request with its final status.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle renders handler errors through the app error handler so the logged status is the one sent.
func (l *Logging) Handle(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	args := []any{
		"method", c.Method(),
		"path", c.Path(),
		"route", c.Route().Path,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	if status >= fiber.StatusInternalServerError {
		l.logger.Error("HTTP request failed", args...)
	} else {
		l.logger.Info("HTTP request completed", args...)
	}

	return nil
}
