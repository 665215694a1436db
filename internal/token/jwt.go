package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/community-board-server/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var _ model.TokenCodec = (*JWT)(nil)

// Claims represents login token claims. The subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Version int `json:"ver"`
}

// JWT implements TokenCodec backed by symmetric HMAC.
type JWT struct {
	secretKey []byte
	now       func() time.Time
}

// NewJWT creates a new JWT token codec with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: []byte(secretKey), now: time.Now}
}

// WithClock replaces the clock used to stamp and validate tokens.
func (j *JWT) WithClock(now func() time.Time) *JWT {
	j.now = now
	return j
}

// Encode creates a token for the user that expires after ttl.
func (j *JWT) Encode(userID uuid.UUID, version int, ttl time.Duration) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Version: version,
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies the signature first and then the expiry.
// Errors wrap model.ErrTokenExpired or model.ErrTokenInvalid.
func (j *JWT) Decode(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenExpired, err)
		}
		return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: bad subject: %v", model.ErrTokenInvalid, err)
	}

	out := model.TokenClaims{
		Subject:   subject,
		Version:   claims.Version,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}

	return out, nil
}
