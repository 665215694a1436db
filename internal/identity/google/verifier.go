// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/dtroode/community-board-server/internal/logger"
	"github.com/dtroode/community-board-server/internal/model"
)

var _ model.FederatedVerifier = (*Verifier)(nil)

// ErrInvalidCredential is returned for every rejected ID token.
var ErrInvalidCredential = errors.New("invalid google credential")

var issuers = []string{"accounts.google.com", "https://accounts.google.com"}

// Claims are the ID token claims used for sign-in.
type Claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier checks ID tokens against Google's published signing keys.
type Verifier struct {
	clientID string
	keyFunc  jwt.Keyfunc
	jwks     *keyfunc.JWKS
	now      func() time.Time
}

// NewVerifier fetches the JWKS at jwksURL and keeps it refreshed in the background until ctx is done.
func NewVerifier(ctx context.Context, clientID, jwksURL string, log *logger.Logger) (*Verifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfuncOptions(ctx, log))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch google signing keys: %w", err)
	}

	return &Verifier{
		clientID: clientID,
		keyFunc:  jwks.Keyfunc,
		jwks:     jwks,
		now:      time.Now,
	}, nil
}

// NewVerifierWithKeyfunc creates a verifier that resolves keys through kf.
func NewVerifierWithKeyfunc(clientID string, kf jwt.Keyfunc, now func() time.Time) *Verifier {
	if now == nil {
		now = time.Now
	}
	return &Verifier{clientID: clientID, keyFunc: kf, now: now}
}

func keyfuncOptions(ctx context.Context, log *logger.Logger) keyfunc.Options {
	return keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			log.Warn("Google verifier: failed to refresh signing keys", "error", err.Error())
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}

// Verify validates signature, audience, issuer and expiry and returns the asserted identity.
func (v *Verifier) Verify(_ context.Context, credential string) (model.FederatedIdentity, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(credential, claims, v.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return model.FederatedIdentity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	if !validIssuer(claims.Issuer) {
		return model.FederatedIdentity{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidCredential, claims.Issuer)
	}
	if strings.TrimSpace(claims.Email) == "" {
		return model.FederatedIdentity{}, fmt.Errorf("%w: email claim is missing", ErrInvalidCredential)
	}
	if !emailVerified(claims.EmailVerified) {
		return model.FederatedIdentity{}, fmt.Errorf("%w: email is not verified", ErrInvalidCredential)
	}

	return model.FederatedIdentity{
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func validIssuer(iss string) bool {
	for _, allowed := range issuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

// emailVerified accepts the boolean and the legacy string form. An absent claim counts as unverified.
func emailVerified(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}
