package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// NonAdminImportLimit is the largest batch a non-admin may import at once.
const NonAdminImportLimit = 10

// Guard authenticates bearer tokens and enforces the self-or-admin rule.
type Guard struct {
	userStore model.UserStore
	codec     model.TokenCodec
	logger    *logger.Logger
}

func NewGuard(userStore model.UserStore, codec model.TokenCodec, logger *logger.Logger) *Guard {
	return &Guard{
		userStore: userStore,
		codec:     codec,
		logger:    logger,
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}
	return parts[1], nil
}

// Authenticate resolves the actor named by the Authorization header.
func (g *Guard) Authenticate(ctx context.Context, header string) (model.User, error) {
	token, err := BearerToken(header)
	if err != nil {
		return model.User{}, apierror.NewErrAuthorizationRequired()
	}

	claims, err := g.codec.Decode(token)
	if err != nil {
		if errors.Is(err, model.ErrTokenExpired) {
			return model.User{}, apierror.NewErrTokenExpired()
		}
		g.logger.Info("Guard: invalid bearer token", "reason", err.Error())
		return model.User{}, apierror.NewErrInvalidToken()
	}

	actor, err := g.userStore.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			g.logger.Info("Guard: token subject no longer exists", "user_id", claims.Subject)
			return model.User{}, apierror.NewErrActorNotFound()
		}
		g.logger.Error("Guard: failed to resolve actor",
			"user_id", claims.Subject,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to resolve actor: %w", err)
	}

	if claims.Version != actor.TokenVersion {
		g.logger.Info("Guard: revoked token presented", "user_id", actor.ID)
		return model.User{}, apierror.NewErrInvalidToken()
	}

	return actor, nil
}

// AuthorizeSelfOrAdmin allows the actor to act on its own record, or on any record when admin.
func (g *Guard) AuthorizeSelfOrAdmin(actor model.User, target uuid.UUID) error {
	if actor.IsAdmin || actor.ID == target {
		return nil
	}
	g.logger.Info("Guard: forbidden", "actor_id", actor.ID, "target_id", target)
	return apierror.NewErrForbidden("Unauthorized")
}

func (g *Guard) RequireAdmin(actor model.User) error {
	if actor.IsAdmin {
		return nil
	}
	g.logger.Info("Guard: admin required", "actor_id", actor.ID)
	return apierror.NewErrForbidden("Unauthorized - Admin access required")
}

// AuthorizeImport caps non-admin imports at NonAdminImportLimit rows.
func (g *Guard) AuthorizeImport(actor model.User, rows int) error {
	if actor.IsAdmin || rows <= NonAdminImportLimit {
		return nil
	}
	g.logger.Info("Guard: import too large for non-admin", "actor_id", actor.ID, "rows", rows)
	return apierror.NewErrForbidden(fmt.Sprintf("Unauthorized - non-admins may import at most %d users", NonAdminImportLimit))
}
