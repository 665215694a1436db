package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenCodec encodes and decodes signed login tokens.
type TokenCodec interface {
	Encode(userID uuid.UUID, version int, ttl time.Duration) (string, error)
	Decode(token string) (TokenClaims, error)
}

// TokenClaims is the verified content of a login token.
type TokenClaims struct {
	Subject   uuid.UUID
	Version   int
	IssuedAt  time.Time
	ExpiresAt time.Time
}
