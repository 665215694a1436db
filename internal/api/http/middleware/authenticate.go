package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// Authenticator resolves the actor named by an Authorization header.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (model.User, error)
}

// Authenticate validates bearer tokens and injects the actor into the request context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// Handle rejects the request unless the Authorization header names a live actor.
func (m *Authenticate) Handle(c *fiber.Ctx) error {
	actor, err := m.authenticator.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.logger.Debug("Authenticate middleware: request rejected",
			"path", c.Path(),
			"error", err.Error())
		return err
	}

	c.SetUserContext(m.contextManager.SetActorToContext(c.UserContext(), actor))
	return c.Next()
}
