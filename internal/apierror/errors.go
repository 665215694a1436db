package apierror

import (
	"fmt"
	"net/http"
)

// Kind is a machine-readable error category rendered to API clients.
type Kind string

const (
	KindUserNotFound               Kind = "user_not_found"
	KindNotFound                   Kind = "not_found"
	KindExpired                    Kind = "expired"
	KindInvalidToken               Kind = "invalid_token"
	KindUnauthorized               Kind = "unauthorized"
	KindAuthorizationRequired      Kind = "authorization_required"
	KindForbidden                  Kind = "forbidden"
	KindInvalidFederatedCredential Kind = "invalid_federated_credential"
	KindDeliveryFailed             Kind = "delivery_failed"
	KindUserAlreadyExists          Kind = "user_already_exists"
	KindBadRequest                 Kind = "bad_request"
	KindPayloadTooLarge            Kind = "payload_too_large"
	KindRateLimited                Kind = "rate_limited"
	KindFederatedDisabled          Kind = "federated_disabled"
	KindInternal                   Kind = "internal"
)

// APIError is an error that is safe to show to API clients.
type APIError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches API errors by kind so callers can use errors.Is with a constructor result.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newErr(kind Kind, status int, msg string) *APIError {
	return &APIError{Kind: kind, Message: msg, HTTPStatus: status}
}

func NewErrUserNotFound() *APIError {
	return newErr(KindUserNotFound, http.StatusNotFound, "User not found. Please contact your administrator.")
}

// NewErrActorNotFound is returned when a valid token names a user that no longer exists.
func NewErrActorNotFound() *APIError {
	return newErr(KindUserNotFound, http.StatusUnauthorized, "User not found")
}

func NewErrAvatarNotFound() *APIError {
	return newErr(KindNotFound, http.StatusNotFound, "Avatar not found")
}

func NewErrTokenExpired() *APIError {
	return newErr(KindExpired, http.StatusUnauthorized, "Token has expired")
}

func NewErrInvalidToken() *APIError {
	return newErr(KindInvalidToken, http.StatusUnauthorized, "Invalid token")
}

func NewErrUnauthorized() *APIError {
	return newErr(KindUnauthorized, http.StatusUnauthorized, "Invalid or expired login link")
}

func NewErrAuthorizationRequired() *APIError {
	return newErr(KindAuthorizationRequired, http.StatusUnauthorized, "Authorization required")
}

func NewErrForbidden(msg string) *APIError {
	return newErr(KindForbidden, http.StatusForbidden, msg)
}

func NewErrInvalidFederatedCredential() *APIError {
	return newErr(KindInvalidFederatedCredential, http.StatusUnauthorized, "Invalid Google credential")
}

func NewErrDeliveryFailed() *APIError {
	return newErr(KindDeliveryFailed, http.StatusInternalServerError, "Failed to send login email. Please try again later.")
}

func NewErrUserAlreadyExists(email string) *APIError {
	return newErr(KindUserAlreadyExists, http.StatusConflict, fmt.Sprintf("Email %s already exists", email))
}

func NewErrBadRequest(msg string) *APIError {
	return newErr(KindBadRequest, http.StatusBadRequest, msg)
}

func NewErrPayloadTooLarge(limit int) *APIError {
	return newErr(KindPayloadTooLarge, http.StatusRequestEntityTooLarge, fmt.Sprintf("Payload exceeds %d bytes", limit))
}

func NewErrRateLimited() *APIError {
	return newErr(KindRateLimited, http.StatusTooManyRequests, "Too many requests, try again later")
}

func NewErrFederatedDisabled() *APIError {
	return newErr(KindFederatedDisabled, http.StatusServiceUnavailable, "Google sign-in is not configured")
}

func NewErrInternalServerError() *APIError {
	return newErr(KindInternal, http.StatusInternalServerError, "Internal server error")
}
