package handler

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
	"github.com/dtroode/community-board-server/internal/service"
)

// AuthService defines the login flows exposed over HTTP.
type AuthService interface {
	RequestLogin(ctx context.Context, email string) (service.LoginResult, error)
	VerifyLink(ctx context.Context, token, email string) (model.User, error)
	VerifyBearer(ctx context.Context, token string) (model.User, error)
	LoginFederated(ctx context.Context, credential string) (service.FederatedLogin, error)
	Logout(ctx context.Context, actor model.User) error
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(authService AuthService, contextManager model.ContextManager, logger *logger.Logger) *Auth {
	return &Auth{
		authService:    authService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Validate checks the login request payload.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
	)
}

// Login sends a login link to a registered email.
func (h *Auth) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return apierror.NewErrBadRequest(err.Error())
	}

	h.logger.Debug("Auth handler: processing login request",
		"email", req.Email)

	result, err := h.authService.RequestLogin(c.UserContext(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{Message: result.Message, DebugLink: result.DebugLink})
}

// VerifyQuery verifies a token passed as query parameters, or a bearer token when the query has none.
func (h *Auth) VerifyQuery(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			bearer, err := service.BearerToken(header)
			if err != nil {
				return apierror.NewErrAuthorizationRequired()
			}
			token = bearer
		}
	}
	return h.verify(c, token, c.Query("email"))
}

// VerifyBody verifies a token passed in the request body.
func (h *Auth) VerifyBody(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}
	return h.verify(c, req.Token, req.Email)
}

func (h *Auth) verify(c *fiber.Ctx, token, email string) error {
	if token == "" {
		return apierror.NewErrBadRequest("Token is required")
	}

	var (
		user model.User
		err  error
	)
	if email == "" {
		user, err = h.authService.VerifyBearer(c.UserContext(), token)
	} else {
		user, err = h.authService.VerifyLink(c.UserContext(), token, email)
	}
	if err != nil {
		return err
	}

	h.logger.Info("Auth handler: token verified",
		"user_id", user.ID)

	return c.JSON(VerifyResponse{IsAdmin: user.IsAdmin, User: toUserResponse(user)})
}

// Google signs in with a Google ID token, creating the user on first sight.
func (h *Auth) Google(c *fiber.Ctx) error {
	var req GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}
	if err := validation.Validate(req.Credential, validation.Required.Error("No credential provided")); err != nil {
		return apierror.NewErrBadRequest(err.Error())
	}

	result, err := h.authService.LoginFederated(c.UserContext(), req.Credential)
	if err != nil {
		return err
	}

	return c.JSON(TokenResponse{Token: result.Token, User: toUserResponse(result.User)})
}

// Logout revokes every token issued to the caller.
func (h *Auth) Logout(c *fiber.Ctx) error {
	actor, ok := h.contextManager.GetActorFromContext(c.UserContext())
	if !ok {
		return apierror.NewErrAuthorizationRequired()
	}

	if err := h.authService.Logout(c.UserContext(), actor); err != nil {
		return err
	}

	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}
