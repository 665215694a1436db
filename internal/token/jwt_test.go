package token

import (
	"strings"
	"testing"
	"time"

	"github.com/dtroode/community-board-server/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWT_Roundtrip(t *testing.T) {
	j := NewJWT("secret")
	u := uuid.New()

	tok, err := j.Encode(u, 3, time.Hour)
	require.NoError(t, err)

	claims, err := j.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, u, claims.Subject)
	assert.Equal(t, 3, claims.Version)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestJWT_Expiry(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	u := uuid.New()

	tok, err := NewJWT("secret").WithClock(fixedClock(issued)).Encode(u, 0, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{name: "just issued", now: issued},
		{name: "one second before exp", now: issued.Add(time.Hour - time.Second)},
		{name: "exactly at exp", now: issued.Add(time.Hour), wantErr: model.ErrTokenExpired},
		{name: "after exp", now: issued.Add(25 * time.Hour), wantErr: model.ErrTokenExpired},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			claims, err := NewJWT("secret").WithClock(fixedClock(tt.now)).Decode(tok)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, u, claims.Subject)
			assert.Equal(t, issued.Add(time.Hour), claims.ExpiresAt.UTC())
		})
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	tok, err := NewJWT("secret").Encode(uuid.New(), 0, time.Hour)
	require.NoError(t, err)

	_, err = NewJWT("other-secret").Decode(tok)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_ExpiredWithWrongSecretIsInvalid(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, err := NewJWT("secret").WithClock(fixedClock(issued)).Encode(uuid.New(), 0, time.Minute)
	require.NoError(t, err)

	_, err = NewJWT("other-secret").WithClock(fixedClock(issued.Add(time.Hour))).Decode(tok)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
	require.NotErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_PayloadTampering(t *testing.T) {
	j := NewJWT("secret")
	tok, err := j.Encode(uuid.New(), 0, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	payload := parts[1]

	// The last character may only carry padding bits, so it is left alone.
	for i := 0; i < len(payload)-1; i++ {
		replacement := byte('A')
		if payload[i] == 'A' {
			replacement = 'B'
		}
		tampered := payload[:i] + string(replacement) + payload[i+1:]
		forged := parts[0] + "." + tampered + "." + parts[2]

		_, err := j.Decode(forged)
		require.ErrorIs(t, err, model.ErrTokenInvalid, "position %d", i)
	}
}

func TestJWT_Malformed(t *testing.T) {
	j := NewJWT("secret")

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "a.b"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := j.Decode(tt.token)
			require.ErrorIs(t, err, model.ErrTokenInvalid)
		})
	}
}

func TestJWT_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWT("secret").Decode(signed)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_RejectsBadSubject(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWT("secret").Decode(signed)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}

func TestJWT_RequiresExpiry(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWT("secret").Decode(signed)
	require.ErrorIs(t, err, model.ErrTokenInvalid)
}
