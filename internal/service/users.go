package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// DefaultMaxAvatarBytes bounds avatar uploads when no limit is configured.
const DefaultMaxAvatarBytes = 2 << 20

var avatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AvatarKey is the object key of a user's avatar.
func AvatarKey(id uuid.UUID) string {
	return "avatars/" + id.String()
}

// AvatarURL is the public API path serving a user's avatar.
func AvatarURL(id uuid.UUID) string {
	return "/api/users/" + id.String() + "/avatar"
}

// Users implements profile operations. Mutations are authorized through the Guard before any write.
type Users struct {
	userStore      model.UserStore
	storage        model.Storage
	guard          *Guard
	logger         *logger.Logger
	maxAvatarBytes int
	now            func() time.Time
}

func NewUsers(userStore model.UserStore, storage model.Storage, guard *Guard, logger *logger.Logger, maxAvatarBytes int) *Users {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = DefaultMaxAvatarBytes
	}
	return &Users{
		userStore:      userStore,
		storage:        storage,
		guard:          guard,
		logger:         logger,
		maxAvatarBytes: maxAvatarBytes,
		now:            time.Now,
	}
}

func (s *Users) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userStore.List(ctx)
	if err != nil {
		s.logger.Error("Users service: failed to list users", "error", err.Error())
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Users) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	user, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierror.NewErrUserNotFound()
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Update applies a partial profile change on behalf of actor.
func (s *Users) Update(ctx context.Context, actor model.User, id uuid.UUID, patch model.UserPatch) (model.User, error) {
	if err := s.guard.AuthorizeSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	patch.Apply(&user)
	user.UpdatedAt = s.now().UTC()

	updated, err := s.userStore.Update(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierror.NewErrUserNotFound()
		}
		s.logger.Error("Users service: failed to update user",
			"user_id", id,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to update user: %w", err)
	}

	s.logger.Info("Users service: profile updated",
		"user_id", id,
		"actor_id", actor.ID)
	return updated, nil
}

func validateImportRow(email string, row model.ImportRow) error {
	if err := validation.Validate(email, validation.Required.Error("Email is required")); err != nil {
		return err
	}
	return validation.Validate(strings.TrimSpace(row.Name), validation.Required.Error("Name is required"))
}

// Import creates users from rows. Invalid rows are reported and skipped; valid rows are stored in one transaction.
func (s *Users) Import(ctx context.Context, actor model.User, rows []model.ImportRow) (model.ImportResult, error) {
	if len(rows) == 0 {
		return model.ImportResult{}, apierror.NewErrBadRequest("No data provided")
	}
	if err := s.guard.AuthorizeImport(actor, len(rows)); err != nil {
		return model.ImportResult{}, err
	}

	var (
		result = model.ImportResult{Users: []model.User{}}
		batch  []model.User
		seen   = make(map[string]bool, len(rows))
		now    = s.now().UTC()
	)

	for idx, row := range rows {
		rowNum := idx + 1
		email := strings.TrimSpace(row.Email)

		if err := validateImportRow(email, row); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNum, err.Error()))
			continue
		}

		if seen[email] {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Email %s already exists", rowNum, email))
			continue
		}
		_, err := s.userStore.GetByEmail(ctx, email)
		if err == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Email %s already exists", rowNum, email))
			continue
		}
		if !errors.Is(err, model.ErrNotFound) {
			return model.ImportResult{}, fmt.Errorf("failed to check existing email: %w", err)
		}
		seen[email] = true

		batch = append(batch, model.User{
			ID:            uuid.New(),
			Email:         email,
			Name:          row.Name,
			Description:   row.Description,
			IsActive:      true,
			Tags:          nonNilStrings(row.Tags),
			Links:         nonNilLinks(row.Links),
			Team:          row.Team,
			AvailableDays: nonNilStrings(row.AvailableDays),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if len(batch) > 0 {
		created, err := s.userStore.CreateMany(ctx, batch)
		if errors.Is(err, model.ErrAlreadyExists) {
			email := s.conflictingEmail(ctx, batch)
			s.logger.Warn("Users service: import raced with another insert",
				"actor_id", actor.ID,
				"email", email)
			return model.ImportResult{}, apierror.NewErrUserAlreadyExists(email)
		}
		if err != nil {
			s.logger.Error("Users service: import transaction failed",
				"actor_id", actor.ID,
				"rows", len(batch),
				"error", err.Error())
			return model.ImportResult{}, fmt.Errorf("failed to import users: %w", err)
		}
		result.Users = created
	}

	s.logger.Info("Users service: import finished",
		"actor_id", actor.ID,
		"imported", len(result.Users),
		"rejected", len(result.Errors))

	return result, nil
}

// conflictingEmail finds the batch email that was stored after the pre-insert check passed.
func (s *Users) conflictingEmail(ctx context.Context, batch []model.User) string {
	for _, u := range batch {
		if _, err := s.userStore.GetByEmail(ctx, u.Email); err == nil {
			return u.Email
		}
	}
	return batch[0].Email
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilLinks(v map[string]string) map[string]string {
	if v == nil {
		return map[string]string{}
	}
	return v
}

// Delete removes users after checking the actor may delete every one of them.
func (s *Users) Delete(ctx context.Context, actor model.User, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, apierror.NewErrBadRequest("No user IDs provided")
	}
	for _, id := range ids {
		if err := s.guard.AuthorizeSelfOrAdmin(actor, id); err != nil {
			return 0, err
		}
	}

	deleted, err := s.userStore.DeleteMany(ctx, ids)
	if err != nil {
		s.logger.Error("Users service: failed to delete users",
			"actor_id", actor.ID,
			"error", err.Error())
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}

	for _, id := range ids {
		if err := s.storage.Delete(ctx, AvatarKey(id)); err != nil {
			s.logger.Warn("Users service: failed to remove avatar",
				"user_id", id,
				"error", err.Error())
		}
	}

	s.logger.Info("Users service: users deleted",
		"actor_id", actor.ID,
		"deleted", deleted)
	return deleted, nil
}

// ToggleAdmin flips the admin flag. Tokens issued to the target before the change stop working.
func (s *Users) ToggleAdmin(ctx context.Context, actor model.User, id uuid.UUID) (model.User, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return model.User{}, err
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	updated, err := s.userStore.SetAdmin(ctx, id, !user.IsAdmin)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierror.NewErrUserNotFound()
		}
		return model.User{}, fmt.Errorf("failed to toggle admin: %w", err)
	}

	s.logger.Info("Users service: admin flag changed",
		"user_id", id,
		"actor_id", actor.ID,
		"is_admin", updated.IsAdmin)
	return updated, nil
}

func (s *Users) Tags(ctx context.Context) ([]string, error) {
	tags, err := s.userStore.ListTags(ctx)
	if err != nil {
		s.logger.Error("Users service: failed to fetch tags", "error", err.Error())
		return nil, fmt.Errorf("failed to fetch tags: %w", err)
	}
	return tags, nil
}

// UploadAvatar stores an image for the user and points the profile at it.
func (s *Users) UploadAvatar(ctx context.Context, actor model.User, id uuid.UUID, body []byte) (model.User, error) {
	if err := s.guard.AuthorizeSelfOrAdmin(actor, id); err != nil {
		return model.User{}, err
	}
	if len(body) == 0 {
		return model.User{}, apierror.NewErrBadRequest("Image body is required")
	}
	if len(body) > s.maxAvatarBytes {
		return model.User{}, apierror.NewErrPayloadTooLarge(s.maxAvatarBytes)
	}

	contentType := http.DetectContentType(body)
	if !avatarTypes[contentType] {
		return model.User{}, apierror.NewErrBadRequest(fmt.Sprintf("Unsupported image type %s", contentType))
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if err := s.storage.Upload(ctx, AvatarKey(id), contentType, bytes.NewReader(body), int64(len(body))); err != nil {
		s.logger.Error("Users service: failed to store avatar",
			"user_id", id,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to store avatar: %w", err)
	}

	user.AvatarURL = AvatarURL(id)
	user.UpdatedAt = s.now().UTC()

	updated, err := s.userStore.Update(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to update avatar url: %w", err)
	}

	s.logger.Info("Users service: avatar uploaded",
		"user_id", id,
		"bytes", len(body))
	return updated, nil
}

// Avatar returns the stored avatar and its content type.
func (s *Users) Avatar(ctx context.Context, id uuid.UUID) (io.ReadCloser, string, error) {
	rc, contentType, err := s.storage.Download(ctx, AvatarKey(id))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", apierror.NewErrAvatarNotFound()
		}
		return nil, "", fmt.Errorf("failed to load avatar: %w", err)
	}
	return rc, contentType, nil
}
