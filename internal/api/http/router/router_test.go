package router

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/community-board-server/internal/api/http/context"
	"github.com/dtroode/community-board-server/internal/api/http/handler"
	"github.com/dtroode/community-board-server/internal/api/http/middleware"
	"github.com/dtroode/community-board-server/internal/identity/google"
	servermocks "github.com/dtroode/community-board-server/internal/mocks"
	"github.com/dtroode/community-board-server/internal/model"
	"github.com/dtroode/community-board-server/internal/service"
	"github.com/dtroode/community-board-server/internal/testutil"
	"github.com/dtroode/community-board-server/internal/token"
)

const (
	testClientID = "board-client.apps.googleusercontent.com"
	testKID      = "test-kid"
)

var (
	member = model.User{ID: uuid.New(), Email: "member@example.com", Name: "Member", IsActive: true}
	other  = model.User{ID: uuid.New(), Email: "other@example.com", Name: "Other", IsActive: true}
	admin  = model.User{ID: uuid.New(), Email: "admin@example.com", Name: "Admin", IsActive: true, IsAdmin: true}
)

type testEnv struct {
	app      *fiber.App
	store    *testutil.MemoryUserStore
	codec    *token.JWT
	notifier *servermocks.Notifier
	storage  *servermocks.Storage
}

type envOptions struct {
	debug     bool
	federated model.FederatedVerifier
	opts      Options
}

func newTestEnv(t *testing.T, eo envOptions) *testEnv {
	t.Helper()

	log := testutil.MakeNoopLogger()
	store := testutil.NewMemoryUserStore(member, other, admin)
	codec := token.NewJWT("test-secret")
	notifier := &servermocks.Notifier{}
	storage := &servermocks.Storage{}

	authService := service.NewAuth(store, codec, notifier, eo.federated, log, service.AuthConfig{
		FrontendURL: "http://localhost:3000",
		TokenTTL:    time.Hour,
		DebugLinks:  eo.debug,
	})
	guard := service.NewGuard(store, codec, log)
	usersService := service.NewUsers(store, storage, guard, log, 1<<20)

	r := New(authService, usersService, guard, httpctx.NewManager(), log, eo.opts)

	return &testEnv{
		app:      r.Register(),
		store:    store,
		codec:    codec,
		notifier: notifier,
		storage:  storage,
	}
}

func (e *testEnv) bearer(t *testing.T, u model.User) string {
	t.Helper()
	current, err := e.store.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	tok, err := e.codec.Encode(current.ID, current.TokenVersion, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path string, body any, bearer string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func TestLogin_UnknownEmail(t *testing.T) {
	env := newTestEnv(t, envOptions{debug: true})

	status, body := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: "ghost@example.com"}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user_not_found", decode[errorBody](t, body).Kind)
}

func TestLogin_InvalidPayload(t *testing.T) {
	env := newTestEnv(t, envOptions{debug: true})

	for _, email := range []string{"", "   "} {
		status, body := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: email}, "")
		assert.Equal(t, http.StatusBadRequest, status, email)
		assert.Equal(t, "bad_request", decode[errorBody](t, body).Kind)
	}

	status, body := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: "not-an-email"}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user_not_found", decode[errorBody](t, body).Kind)
}

func TestLogin_ImportedUserWithFreeformEmail(t *testing.T) {
	env := newTestEnv(t, envOptions{debug: true})

	req := handler.ImportRequest{Data: []handler.ImportRow{{Email: "carol", Name: "Carol"}}}
	status, body := env.do(t, http.MethodPost, "/api/users/import", req, env.bearer(t, admin))
	require.Equal(t, http.StatusCreated, status, string(body))

	status, body = env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: "carol"}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotEmpty(t, decode[handler.LoginResponse](t, body).DebugLink)
}

func TestLogin_DebugLinkDecodesToUser(t *testing.T) {
	env := newTestEnv(t, envOptions{debug: true})

	status, body := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: member.Email}, "")
	require.Equal(t, http.StatusOK, status, string(body))

	resp := decode[handler.LoginResponse](t, body)
	require.NotEmpty(t, resp.DebugLink)

	link, err := url.Parse(resp.DebugLink)
	require.NoError(t, err)
	assert.Equal(t, "/auth/verify", link.Path)
	assert.Equal(t, member.Email, link.Query().Get("email"))

	claims, err := env.codec.Decode(link.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, member.ID, claims.Subject)

	env.notifier.AssertNotCalled(t, "SendLoginLink", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_SendsLink(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	env.notifier.On("SendLoginLink", mock.Anything, member.Email, mock.MatchedBy(func(link string) bool {
		return strings.HasPrefix(link, "http://localhost:3000/auth/verify?token=")
	})).Return(nil)

	status, body := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: member.Email}, "")
	require.Equal(t, http.StatusOK, status)

	resp := decode[handler.LoginResponse](t, body)
	assert.Equal(t, "Login link sent successfully", resp.Message)
	assert.Empty(t, resp.DebugLink)
	env.notifier.AssertExpectations(t)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	adminToken := env.bearer(t, admin)
	memberToken := env.bearer(t, member)

	t.Run("query returns admin flag", func(t *testing.T) {
		path := "/api/auth/verify?token=" + url.QueryEscape(adminToken) + "&email=" + url.QueryEscape(admin.Email)
		status, body := env.do(t, http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, status, string(body))

		resp := decode[handler.VerifyResponse](t, body)
		assert.True(t, resp.IsAdmin)
		assert.Equal(t, admin.ID.String(), resp.User.ID)
	})

	t.Run("body form", func(t *testing.T) {
		status, body := env.do(t, http.MethodPost, "/api/auth/verify", handler.VerifyRequest{Token: memberToken, Email: member.Email}, "")
		require.Equal(t, http.StatusOK, status)
		assert.False(t, decode[handler.VerifyResponse](t, body).IsAdmin)
	})

	t.Run("bearer header", func(t *testing.T) {
		status, body := env.do(t, http.MethodGet, "/api/auth/verify", nil, memberToken)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, member.Email, decode[handler.VerifyResponse](t, body).User.Email)
	})

	t.Run("forged email", func(t *testing.T) {
		path := "/api/auth/verify?token=" + url.QueryEscape(memberToken) + "&email=" + url.QueryEscape(admin.Email)
		status, body := env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", decode[errorBody](t, body).Kind)
	})

	t.Run("tampered token", func(t *testing.T) {
		tampered := memberToken[:len(memberToken)-2] + "xx"
		status, _ := env.do(t, http.MethodPost, "/api/auth/verify", handler.VerifyRequest{Token: tampered, Email: member.Email}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("missing token", func(t *testing.T) {
		status, _ := env.do(t, http.MethodGet, "/api/auth/verify", nil, "")
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestUpdateUser_SelfOrAdmin(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	memberToken := env.bearer(t, member)
	adminToken := env.bearer(t, admin)

	rename := map[string]any{"name": "Renamed", "tags": []string{"go"}}

	status, body := env.do(t, http.MethodPut, "/api/users/"+other.ID.String(), rename, memberToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", decode[errorBody](t, body).Kind)

	unchanged, err := env.store.GetByID(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Other", unchanged.Name)

	status, body = env.do(t, http.MethodPut, "/api/users/"+member.ID.String(), rename, memberToken)
	require.Equal(t, http.StatusOK, status, string(body))
	updated := decode[handler.UserResponse](t, body)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, []string{"go"}, updated.Tags)

	status, body = env.do(t, http.MethodPut, "/api/users/"+other.ID.String(), map[string]any{"team": "Core"}, adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Core", decode[handler.UserResponse](t, body).Team)

	status, body = env.do(t, http.MethodPut, "/api/users/"+member.ID.String(), rename, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "authorization_required", decode[errorBody](t, body).Kind)
}

func importBody(n int) handler.ImportRequest {
	rows := make([]handler.ImportRow, n)
	for i := range rows {
		rows[i] = handler.ImportRow{Email: "row" + uuid.NewString()[:8] + "@example.com", Name: "Row"}
	}
	return handler.ImportRequest{Data: rows}
}

func TestImport(t *testing.T) {
	t.Run("non-admin over cap creates nothing", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		status, body := env.do(t, http.MethodPost, "/api/users/import", importBody(service.NonAdminImportLimit+1), env.bearer(t, member))
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "forbidden", decode[errorBody](t, body).Kind)
		assert.Equal(t, 0, env.store.Creates())
	})

	t.Run("all rows imported", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		status, body := env.do(t, http.MethodPost, "/api/users/import", importBody(3), env.bearer(t, member))
		require.Equal(t, http.StatusCreated, status, string(body))
		resp := decode[handler.ImportResponse](t, body)
		assert.Equal(t, 3, resp.Imported)
		assert.Empty(t, resp.Errors)
	})

	t.Run("partial import", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		req := handler.ImportRequest{Data: []handler.ImportRow{
			{Email: "fresh@example.com", Name: "Fresh"},
			{Email: member.Email, Name: "Dup"},
		}}
		status, body := env.do(t, http.MethodPost, "/api/users/import", req, env.bearer(t, admin))
		require.Equal(t, http.StatusMultiStatus, status)
		resp := decode[handler.ImportResponse](t, body)
		assert.Equal(t, 1, resp.Imported)
		assert.Equal(t, []string{"Row 2: Email member@example.com already exists"}, resp.Errors)
	})

	t.Run("nothing imported", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		req := handler.ImportRequest{Data: []handler.ImportRow{{Name: "No Email"}}}
		status, body := env.do(t, http.MethodPost, "/api/users/import", req, env.bearer(t, admin))
		require.Equal(t, http.StatusBadRequest, status)
		assert.Len(t, decode[handler.ImportResponse](t, body).Errors, 1)
	})

	t.Run("empty data", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		status, _ := env.do(t, http.MethodPost, "/api/users/import", handler.ImportRequest{}, env.bearer(t, admin))
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestDeleteUsers(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	memberToken := env.bearer(t, member)

	status, _ := env.do(t, http.MethodPost, "/api/users/delete", handler.DeleteRequest{UserIDs: []string{other.ID.String()}}, memberToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodPost, "/api/users/delete", handler.DeleteRequest{UserIDs: []string{"not-a-uuid"}}, memberToken)
	assert.Equal(t, http.StatusBadRequest, status)

	env.storage.On("Delete", mock.Anything, service.AvatarKey(member.ID)).Return(nil)
	status, body := env.do(t, http.MethodPost, "/api/users/delete", handler.DeleteRequest{UserIDs: []string{member.ID.String()}}, memberToken)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, decode[handler.DeleteResponse](t, body).Deleted)

	status, body = env.do(t, http.MethodPut, "/api/users/"+member.ID.String(), map[string]any{"name": "Ghost"}, memberToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "user_not_found", decode[errorBody](t, body).Kind)
}

func TestToggleAdmin(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	memberToken := env.bearer(t, member)

	status, _ := env.do(t, http.MethodPost, "/api/users/"+other.ID.String()+"/toggle-admin", nil, memberToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPost, "/api/users/"+member.ID.String()+"/toggle-admin", nil, env.bearer(t, admin))
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[handler.ToggleAdminResponse](t, body).User.IsAdmin)

	status, body = env.do(t, http.MethodGet, "/api/auth/verify", nil, memberToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", decode[errorBody](t, body).Kind)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	memberToken := env.bearer(t, member)

	status, _ := env.do(t, http.MethodPost, "/api/auth/logout", nil, memberToken)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(t, http.MethodPut, "/api/users/"+member.ID.String(), map[string]any{"name": "After"}, memberToken)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_token", decode[errorBody](t, body).Kind)

	status, _ = env.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAvatar(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	env.storage.On("Upload", mock.Anything, service.AvatarKey(member.ID), "image/png", mock.Anything, int64(len(png))).Return(nil)
	env.storage.On("Download", mock.Anything, service.AvatarKey(member.ID)).Return(io.NopCloser(bytes.NewReader(png)), "image/png", nil)
	env.storage.On("Download", mock.Anything, service.AvatarKey(other.ID)).Return(nil, "", model.ErrNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/users/"+member.ID.String()+"/avatar", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Authorization", "Bearer "+env.bearer(t, member))
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, service.AvatarURL(member.ID), decode[handler.UserResponse](t, data).AvatarURL)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+member.ID.String()+"/avatar", nil), -1)
	require.NoError(t, err)
	data, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, png, data)

	status, body := env.do(t, http.MethodGet, "/api/users/"+other.ID.String()+"/avatar", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", decode[errorBody](t, body).Kind)
}

func TestPublicReads(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	_, err := env.store.Update(context.Background(), model.User{ID: member.ID, Name: member.Name, IsActive: true, Tags: []string{"rust", "go"}})
	require.NoError(t, err)

	status, body := env.do(t, http.MethodGet, "/api/users", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]handler.UserResponse](t, body), 3)

	status, body = env.do(t, http.MethodGet, "/api/users/"+other.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, other.Email, decode[handler.UserResponse](t, body).Email)

	status, _ = env.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodGet, "/api/users/42", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodGet, "/api/tags", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"go", "rust"}, decode[[]string](t, body))

	status, body = env.do(t, http.MethodGet, "/api/", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "POST /api/auth/login")
}

func newGoogleVerifier(t *testing.T) (*google.Verifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		testKID: keyfunc.NewGivenCustom(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: jwt.SigningMethodRS256.Alg()}),
	})
	return google.NewVerifierWithKeyfunc(testClientID, jwks.Keyfunc, time.Now), key
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, audience, email string) string {
	t.Helper()
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, google.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "google-subject",
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:         email,
		EmailVerified: true,
		Name:          "Newcomer",
	})
	tok.Header["kid"] = testKID
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestGoogleLogin(t *testing.T) {
	verifier, key := newGoogleVerifier(t)

	t.Run("audience mismatch", func(t *testing.T) {
		env := newTestEnv(t, envOptions{federated: verifier})
		cred := signGoogleToken(t, key, "someone-else.apps.googleusercontent.com", "newcomer@example.com")

		status, body := env.do(t, http.MethodPost, "/api/auth/google", handler.GoogleLoginRequest{Credential: cred}, "")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid_federated_credential", decode[errorBody](t, body).Kind)
		assert.Equal(t, 0, env.store.Creates())
	})

	t.Run("first seen creates one non-admin user", func(t *testing.T) {
		env := newTestEnv(t, envOptions{federated: verifier})
		cred := signGoogleToken(t, key, testClientID, "newcomer@example.com")

		status, body := env.do(t, http.MethodPost, "/api/auth/google", handler.GoogleLoginRequest{Credential: cred}, "")
		require.Equal(t, http.StatusOK, status, string(body))

		resp := decode[handler.TokenResponse](t, body)
		assert.False(t, resp.User.IsAdmin)
		assert.Equal(t, "Newcomer", resp.User.Name)
		assert.Equal(t, 1, env.store.Creates())

		status, _ = env.do(t, http.MethodPut, "/api/users/"+resp.User.ID, map[string]any{"team": "New"}, resp.Token)
		assert.Equal(t, http.StatusOK, status)

		status, _ = env.do(t, http.MethodPost, "/api/auth/google", handler.GoogleLoginRequest{Credential: cred}, "")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 1, env.store.Creates())
	})

	t.Run("missing credential", func(t *testing.T) {
		env := newTestEnv(t, envOptions{federated: verifier})
		status, _ := env.do(t, http.MethodPost, "/api/auth/google", handler.GoogleLoginRequest{}, "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		status, body := env.do(t, http.MethodPost, "/api/auth/google", handler.GoogleLoginRequest{Credential: "x"}, "")
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, "federated_disabled", decode[errorBody](t, body).Kind)
	})
}

func TestRateLimitAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := middleware.NewMetrics(reg)
	require.NoError(t, err)
	limiter := middleware.NewMemoryRateLimiter()
	t.Cleanup(limiter.Close)

	env := newTestEnv(t, envOptions{debug: true, opts: Options{
		LoginPerMinute: 2,
		Limiter:        limiter,
		Metrics:        metrics,
		Gatherer:       reg,
	}})

	var statuses []int
	for i := 0; i < 3; i++ {
		status, _ := env.do(t, http.MethodPost, "/api/auth/login", handler.LoginRequest{Email: member.Email}, "")
		statuses = append(statuses, status)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

	status, body := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "community_api_http_requests_total")
	assert.Contains(t, string(body), `community_api_rate_limit_hits_total{route="auth_login"} 1`)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, envOptions{opts: Options{CORSOrigins: []string{"https://board.example.com"}}})

	req := httptest.NewRequest(http.MethodOptions, "/api/users", nil)
	req.Header.Set("Origin", "https://board.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://board.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCorsOrigins(t *testing.T) {
	assert.Equal(t, "*", corsOrigins(nil))
	assert.Equal(t, "*", corsOrigins([]string{" "}))
	assert.Equal(t, "https://a.example,https://b.example", corsOrigins([]string{"https://a.example", " https://b.example"}))
}
