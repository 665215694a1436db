package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// UsersService defines profile operations exposed over HTTP.
type UsersService interface {
	List(ctx context.Context) ([]model.User, error)
	Get(ctx context.Context, id uuid.UUID) (model.User, error)
	Update(ctx context.Context, actor model.User, id uuid.UUID, patch model.UserPatch) (model.User, error)
	Import(ctx context.Context, actor model.User, rows []model.ImportRow) (model.ImportResult, error)
	Delete(ctx context.Context, actor model.User, ids []uuid.UUID) (int, error)
	ToggleAdmin(ctx context.Context, actor model.User, id uuid.UUID) (model.User, error)
	Tags(ctx context.Context) ([]string, error)
	UploadAvatar(ctx context.Context, actor model.User, id uuid.UUID, body []byte) (model.User, error)
	Avatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error)
}

// Users handles HTTP endpoints for member profiles.
type Users struct {
	usersService   UsersService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUsers creates a new Users handler.
func NewUsers(usersService UsersService, contextManager model.ContextManager, logger *logger.Logger) *Users {
	return &Users{
		usersService:   usersService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// userID parses the :id route parameter. An unparseable id names no user.
func userID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, apierror.NewErrUserNotFound()
	}
	return id, nil
}

func (h *Users) actor(c *fiber.Ctx) (model.User, error) {
	actor, ok := h.contextManager.GetActorFromContext(c.UserContext())
	if !ok {
		return model.User{}, apierror.NewErrAuthorizationRequired()
	}
	return actor, nil
}

func (h *Users) List(c *fiber.Ctx) error {
	users, err := h.usersService.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(toUserResponses(users))
}

func (h *Users) Get(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}
	user, err := h.usersService.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// Update applies a partial profile update for the caller or, for admins, any user.
func (h *Users) Update(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}

	user, err := h.usersService.Update(c.UserContext(), actor, id, req.patch())
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

// UploadAvatar stores the raw request body as the user's avatar.
func (h *Users) UploadAvatar(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.usersService.UploadAvatar(c.UserContext(), actor, id, c.Body())
	if err != nil {
		return err
	}
	return c.JSON(toUserResponse(user))
}

func (h *Users) Avatar(c *fiber.Ctx) error {
	id, err := userID(c)
	if err != nil {
		return err
	}

	rc, contentType, err := h.usersService.Avatar(c.UserContext(), id)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("failed to read avatar: %w", err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.Send(data)
}

// Import creates users in bulk. The status is 201 when every row imports, 207 when some do and 400 when none do.
func (h *Users) Import(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	var req ImportRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}

	rows := make([]model.ImportRow, 0, len(req.Data))
	for _, r := range req.Data {
		rows = append(rows, model.ImportRow{
			Email:         r.Email,
			Name:          r.Name,
			Description:   r.Description,
			Tags:          r.Tags,
			Links:         r.Links,
			Team:          r.Team,
			AvailableDays: r.AvailableDays,
		})
	}

	result, err := h.usersService.Import(c.UserContext(), actor, rows)
	if err != nil {
		return err
	}

	resp := ImportResponse{
		Imported: len(result.Users),
		Users:    toUserResponses(result.Users),
		Errors:   result.Errors,
	}

	status := fiber.StatusCreated
	switch {
	case len(result.Users) == 0:
		status = fiber.StatusBadRequest
		resp.Message = "No users were imported"
	case len(result.Errors) > 0:
		status = fiber.StatusMultiStatus
		resp.Message = fmt.Sprintf("Imported %d users with %d errors", len(result.Users), len(result.Errors))
	default:
		resp.Message = fmt.Sprintf("Successfully imported %d users", len(result.Users))
	}

	return c.Status(status).JSON(resp)
}

// Delete removes every listed user the caller may delete, or none of them.
func (h *Users) Delete(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	var req DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return apierror.NewErrBadRequest("Invalid request body")
	}

	ids := make([]uuid.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apierror.NewErrBadRequest(fmt.Sprintf("Invalid user id %q", raw))
		}
		ids = append(ids, id)
	}

	deleted, err := h.usersService.Delete(c.UserContext(), actor, ids)
	if err != nil {
		return err
	}

	return c.JSON(DeleteResponse{
		Message: fmt.Sprintf("Successfully deleted %d users", deleted),
		Deleted: deleted,
	})
}

func (h *Users) ToggleAdmin(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := userID(c)
	if err != nil {
		return err
	}

	user, err := h.usersService.ToggleAdmin(c.UserContext(), actor, id)
	if err != nil {
		return err
	}

	status := "revoked from"
	if user.IsAdmin {
		status = "granted to"
	}
	return c.JSON(ToggleAdminResponse{
		Message: fmt.Sprintf("Admin status %s %s", status, user.Name),
		User:    toUserResponse(user),
	})
}

func (h *Users) Tags(c *fiber.Ctx) error {
	tags, err := h.usersService.Tags(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(tags)
}
