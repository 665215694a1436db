package handler

import (
	"time"

	"github.com/dtroode/community-board-server/internal/model"
)

// UserResponse is the public JSON shape of a user.
type UserResponse struct {
	ID            string            `json:"id"`
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	IsActive      bool              `json:"isActive"`
	IsAdmin       bool              `json:"isAdmin"`
	Tags          []string          `json:"tags"`
	Links         map[string]string `json:"links"`
	Team          string            `json:"team"`
	AvailableDays []string          `json:"availableDays"`
	AvatarURL     string            `json:"avatarUrl"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

func toUserResponse(u model.User) UserResponse {
	resp := UserResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Name:          u.Name,
		Description:   u.Description,
		IsActive:      u.IsActive,
		IsAdmin:       u.IsAdmin,
		Tags:          u.Tags,
		Links:         u.Links,
		Team:          u.Team,
		AvailableDays: u.AvailableDays,
		AvatarURL:     u.AvatarURL,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.Links == nil {
		resp.Links = map[string]string{}
	}
	if resp.AvailableDays == nil {
		resp.AvailableDays = []string{}
	}
	return resp
}

func toUserResponses(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

// MessageResponse carries a human-readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest asks for a login link.
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse is returned by the login endpoint. DebugLink is only set outside production.
type LoginResponse struct {
	Message   string `json:"message"`
	DebugLink string `json:"debug_link,omitempty"`
}

// VerifyRequest is the body form of a verification request.
type VerifyRequest struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// VerifyResponse reports the verified user.
type VerifyResponse struct {
	IsAdmin bool         `json:"isAdmin"`
	User    UserResponse `json:"user"`
}

// GoogleLoginRequest carries a Google ID token.
type GoogleLoginRequest struct {
	Credential string `json:"credential"`
}

// TokenResponse is returned after a federated sign-in.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UpdateUserRequest is a partial profile update. Absent fields are left unchanged.
type UpdateUserRequest struct {
	Name          *string            `json:"name"`
	Description   *string            `json:"description"`
	IsActive      *bool              `json:"isActive"`
	Tags          *[]string          `json:"tags"`
	Links         *map[string]string `json:"links"`
	Team          *string            `json:"team"`
	AvailableDays *[]string          `json:"availableDays"`
}

func (r UpdateUserRequest) patch() model.UserPatch {
	return model.UserPatch{
		Name:          r.Name,
		Description:   r.Description,
		IsActive:      r.IsActive,
		Tags:          r.Tags,
		Links:         r.Links,
		Team:          r.Team,
		AvailableDays: r.AvailableDays,
	}
}

// ImportRow is one user in an import request.
type ImportRow struct {
	Email         string            `json:"email"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Tags          []string          `json:"tags"`
	Links         map[string]string `json:"links"`
	Team          string            `json:"team"`
	AvailableDays []string          `json:"availableDays"`
}

// ImportRequest wraps the rows to import.
type ImportRequest struct {
	Data []ImportRow `json:"data"`
}

// ImportResponse reports imported users and rejected rows.
type ImportResponse struct {
	Message  string         `json:"message"`
	Imported int            `json:"imported"`
	Users    []UserResponse `json:"users"`
	Errors   []string       `json:"errors,omitempty"`
}

// DeleteRequest lists users to delete.
type DeleteRequest struct {
	UserIDs []string `json:"userIds"`
}

// DeleteResponse reports how many users were removed.
type DeleteResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// ToggleAdminResponse reports the user after an admin flag change.
type ToggleAdminResponse struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}
