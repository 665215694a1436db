package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/community-board-server/internal/apierror"
	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

const (
	msgLinkSent  = "Login link sent successfully"
	msgDebugLink = "Development mode - use the link below to log in"
)

// AuthConfig holds the immutable settings of the login flows.
type AuthConfig struct {
	FrontendURL string
	TokenTTL    time.Duration
	// DebugLinks returns the login link in the response instead of delivering it.
	DebugLinks bool
}

// LoginResult is the outcome of a login link request.
type LoginResult struct {
	Message   string
	DebugLink string
}

// FederatedLogin is the outcome of a successful federated sign-in.
type FederatedLogin struct {
	Token string
	User  model.User
}

type Auth struct {
	userStore model.UserStore
	codec     model.TokenCodec
	notifier  model.Notifier
	federated model.FederatedVerifier
	logger    *logger.Logger
	cfg       AuthConfig
	now       func() time.Time
}

// NewAuth creates the auth service. federated may be nil when federated sign-in is not configured.
func NewAuth(
	userStore model.UserStore,
	codec model.TokenCodec,
	notifier model.Notifier,
	federated model.FederatedVerifier,
	logger *logger.Logger,
	cfg AuthConfig,
) *Auth {
	return &Auth{
		userStore: userStore,
		codec:     codec,
		notifier:  notifier,
		federated: federated,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// BuildLoginLink returns the frontend verification URL for token and email.
func BuildLoginLink(frontendURL, token, email string) string {
	return strings.TrimRight(frontendURL, "/") + "/auth/verify?token=" + url.QueryEscape(token) +
		"&email=" + url.QueryEscape(email)
}

// RequestLogin issues a login token for a registered email and delivers the link.
func (a *Auth) RequestLogin(ctx context.Context, email string) (LoginResult, error) {
	a.logger.Debug("Auth service: login link requested",
		"email", email)

	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Auth service: login requested for unknown email",
				"email", email)
			return LoginResult{}, apierror.NewErrUserNotFound()
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return LoginResult{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	token, err := a.codec.Encode(user.ID, user.TokenVersion, a.cfg.TokenTTL)
	if err != nil {
		a.logger.Error("Auth service: failed to issue login token",
			"user_id", user.ID,
			"error", err.Error())
		return LoginResult{}, fmt.Errorf("failed to issue login token: %w", err)
	}

	if err := a.userStore.MarkLoginIssued(ctx, user.ID, a.now().UTC()); err != nil {
		a.logger.Error("Auth service: failed to record issued login",
			"user_id", user.ID,
			"error", err.Error())
		return LoginResult{}, fmt.Errorf("failed to record issued login: %w", err)
	}

	link := BuildLoginLink(a.cfg.FrontendURL, token, email)

	if a.cfg.DebugLinks {
		a.logger.Info("Auth service: returning debug login link",
			"user_id", user.ID)
		return LoginResult{Message: msgDebugLink, DebugLink: link}, nil
	}

	if err := a.notifier.SendLoginLink(ctx, email, link); err != nil {
		a.logger.Error("Auth service: failed to deliver login link",
			"user_id", user.ID,
			"error", err.Error())
		return LoginResult{}, apierror.NewErrDeliveryFailed()
	}

	a.logger.Info("Auth service: login link delivered",
		"user_id", user.ID)

	return LoginResult{Message: msgLinkSent}, nil
}

// VerifyLink checks a token presented together with the email it was issued for.
// Every token failure is reported as the same unauthorized error; the cause is only logged.
func (a *Auth) VerifyLink(ctx context.Context, token, email string) (model.User, error) {
	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierror.NewErrUserNotFound()
		}
		a.logger.Error("Auth service: failed to get user by email",
			"email", email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	claims, err := a.codec.Decode(token)
	if err != nil {
		a.logger.Info("Auth service: login token rejected",
			"user_id", user.ID,
			"reason", err.Error())
		return model.User{}, apierror.NewErrUnauthorized()
	}

	if claims.Subject != user.ID {
		a.logger.Warn("Auth service: login token subject does not match email",
			"user_id", user.ID,
			"subject", claims.Subject)
		return model.User{}, apierror.NewErrUnauthorized()
	}

	if claims.Version != user.TokenVersion {
		a.logger.Info("Auth service: login token revoked",
			"user_id", user.ID)
		return model.User{}, apierror.NewErrUnauthorized()
	}

	return user, nil
}

// VerifyBearer checks a token on its own and resolves the user it names.
func (a *Auth) VerifyBearer(ctx context.Context, token string) (model.User, error) {
	claims, err := a.codec.Decode(token)
	if err != nil {
		a.logger.Info("Auth service: bearer token rejected",
			"reason", err.Error())
		return model.User{}, apierror.NewErrUnauthorized()
	}

	user, err := a.userStore.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, apierror.NewErrUserNotFound()
		}
		a.logger.Error("Auth service: failed to get user by id",
			"user_id", claims.Subject,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}

	if claims.Version != user.TokenVersion {
		a.logger.Info("Auth service: bearer token revoked",
			"user_id", user.ID)
		return model.User{}, apierror.NewErrUnauthorized()
	}

	return user, nil
}

// LoginFederated verifies an external credential, provisions the user on first sight and issues a token.
func (a *Auth) LoginFederated(ctx context.Context, credential string) (FederatedLogin, error) {
	if a.federated == nil {
		return FederatedLogin{}, apierror.NewErrFederatedDisabled()
	}

	identity, err := a.federated.Verify(ctx, credential)
	if err != nil {
		a.logger.Info("Auth service: federated credential rejected",
			"reason", err.Error())
		return FederatedLogin{}, apierror.NewErrInvalidFederatedCredential()
	}

	user, err := a.resolveOrCreate(ctx, identity)
	if err != nil {
		return FederatedLogin{}, err
	}

	token, err := a.codec.Encode(user.ID, user.TokenVersion, a.cfg.TokenTTL)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"user_id", user.ID,
			"error", err.Error())
		return FederatedLogin{}, fmt.Errorf("failed to issue token: %w", err)
	}

	a.logger.Info("Auth service: federated login succeeded",
		"user_id", user.ID)

	return FederatedLogin{Token: token, User: user}, nil
}

func (a *Auth) resolveOrCreate(ctx context.Context, identity model.FederatedIdentity) (model.User, error) {
	user, err := a.userStore.GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		a.logger.Error("Auth service: failed to get user by email",
			"email", identity.Email,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	now := a.now().UTC()
	created, err := a.userStore.Create(ctx, model.User{
		ID:            uuid.New(),
		Email:         identity.Email,
		Name:          displayName(identity),
		IsActive:      true,
		IsAdmin:       false,
		Tags:          []string{},
		Links:         map[string]string{},
		AvailableDays: []string{},
		AvatarURL:     identity.Picture,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err == nil {
		a.logger.Info("Auth service: provisioned federated user",
			"user_id", created.ID,
			"email", created.Email)
		return created, nil
	}

	// A concurrent sign-in for the same email won the insert.
	if errors.Is(err, model.ErrAlreadyExists) {
		user, lookupErr := a.userStore.GetByEmail(ctx, identity.Email)
		if lookupErr != nil {
			return model.User{}, fmt.Errorf("failed to get user after conflict: %w", lookupErr)
		}
		return user, nil
	}

	a.logger.Error("Auth service: failed to create federated user",
		"email", identity.Email,
		"error", err.Error())
	return model.User{}, fmt.Errorf("failed to create user: %w", err)
}

func displayName(identity model.FederatedIdentity) string {
	if name := strings.TrimSpace(identity.Name); name != "" {
		return name
	}
	local, _, _ := strings.Cut(identity.Email, "@")
	return local
}

// Logout revokes every token issued to the actor so far.
func (a *Auth) Logout(ctx context.Context, actor model.User) error {
	if err := a.userStore.BumpTokenVersion(ctx, actor.ID); err != nil {
		a.logger.Error("Auth service: failed to revoke tokens",
			"user_id", actor.ID,
			"error", err.Error())
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	a.logger.Info("Auth service: tokens revoked",
		"user_id", actor.ID)
	return nil
}
