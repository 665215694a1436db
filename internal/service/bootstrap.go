package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

// EnsureAdmin creates the bootstrap admin account when email is set and no user owns it yet.
func EnsureAdmin(ctx context.Context, userStore model.UserStore, email, name string, log *logger.Logger) error {
	if email == "" {
		return nil
	}

	existing, err := userStore.GetByEmail(ctx, email)
	if err == nil {
		log.Info("Bootstrap: admin user already exists", "user_id", existing.ID)
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}

	now := time.Now().UTC()
	admin, err := userStore.Create(ctx, model.User{
		ID:            uuid.New(),
		Email:         email,
		Name:          name,
		IsActive:      true,
		IsAdmin:       true,
		Tags:          []string{"admin"},
		Links:         map[string]string{},
		Team:          "Admin",
		AvailableDays: []string{"Mo", "Tu", "We", "Th", "Fr"},
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	log.Info("Bootstrap: admin user created", "user_id", admin.ID, "email", admin.Email)
	return nil
}
