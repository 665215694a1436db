package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for community members.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User) (User, error)
	// CreateMany inserts all users in a single transaction.
	CreateMany(ctx context.Context, users []User) ([]User, error)
	Update(ctx context.Context, user User) (User, error)
	// DeleteMany removes all users in a single transaction and returns the number removed.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error)
	// SetAdmin changes the admin flag and bumps the token version.
	SetAdmin(ctx context.Context, id uuid.UUID, isAdmin bool) (User, error)
	BumpTokenVersion(ctx context.Context, id uuid.UUID) error
	MarkLoginIssued(ctx context.Context, id uuid.UUID, at time.Time) error
	ListTags(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// User represents a community member profile.
type User struct {
	ID            uuid.UUID
	Email         string
	Name          string
	Description   string
	IsActive      bool
	IsAdmin       bool
	Tags          []string
	Links         map[string]string
	Team          string
	AvailableDays []string
	AvatarURL     string
	TokenVersion  int
	LoginIssuedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserPatch holds a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	Name          *string
	Description   *string
	IsActive      *bool
	Tags          *[]string
	Links         *map[string]string
	Team          *string
	AvailableDays *[]string
}

// Apply copies every non-nil field of the patch onto u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Description != nil {
		u.Description = *p.Description
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.Tags != nil {
		u.Tags = *p.Tags
	}
	if p.Links != nil {
		u.Links = *p.Links
	}
	if p.Team != nil {
		u.Team = *p.Team
	}
	if p.AvailableDays != nil {
		u.AvailableDays = *p.AvailableDays
	}
}

// ImportRow is a single entry of a bulk import request.
type ImportRow struct {
	Email         string
	Name          string
	Description   string
	Tags          []string
	Links         map[string]string
	Team          string
	AvailableDays []string
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Users  []User
	Errors []string
}
