package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/database"
	auditRepo "github.com/mrlokans/houseprice/internal/database/audit"
	"github.com/mrlokans/houseprice/internal/database/predictions"
	"github.com/mrlokans/houseprice/internal/database/users"
	"github.com/mrlokans/houseprice/internal/entities"
	"github.com/mrlokans/houseprice/internal/prediction"
)

const (
	testPrefix    = "/api-deutsche"
	testSecret    = "0123456789abcdef0123456789abcdef"
	repoModelPath = "../../model.json"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *Router
	db     *database.Database
	audit  *audit.Service
}

type envOptions struct {
	usersRequireAuth bool
	modelPath        string
	trustedProxies   []string
	hstsMaxAge       int
}

func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	path := filepath.Join(t.TempDir(), "houseprice.db") + "?_busy_timeout=5000"
	db, err := database.NewDatabase(config.Database{URL: path, LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	if opts.modelPath == "" {
		opts.modelPath = repoModelPath
	}

	db := setupTestDatabase(t)
	tokens, err := auth.NewTokenService(config.Auth{SecretKey: testSecret, TokenExpiry: 30 * time.Minute})
	require.NoError(t, err)

	usersRepo := users.NewRepository(db.DB)
	authService := auth.NewService(usersRepo, auth.NewHasher(bcrypt.MinCost), tokens)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	t.Cleanup(auditService.Wait)

	router := NewRouter(RouterConfig{
		Database:          db,
		UsersRepo:         usersRepo,
		Audit:             auditService,
		AuthService:       authService,
		AuthMiddleware:    auth.NewMiddleware(authService),
		RateLimiter:       auth.NewRateLimiter(auth.DefaultRateLimitConfig()),
		PredictionService: prediction.NewService(prediction.NewLazyModel(opts.modelPath), predictions.NewRepository(db.DB)),
		APIPrefix:         testPrefix,
		UsersRequireAuth:  opts.usersRequireAuth,
		TrustedProxies:    opts.trustedProxies,
		HSTSMaxAge:        opts.hstsMaxAge,
		Version:           "test",
	})
	t.Cleanup(router.Stop)

	return &testEnv{router: router, db: db, audit: auditService}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, testPrefix+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// signup registers username and returns its id and a fresh access token.
func (e *testEnv) signup(t *testing.T, username string) (uint, string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", gin.H{"username": username, "password": "secret"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = e.do(t, http.MethodPost, "/auth/login", gin.H{"username": username, "password": "secret"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var token auth.AccessToken
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return created.UserID, token.AccessToken
}

func TestRouter_SecurityHeadersAndRequestID(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodGet, "/users", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRouter_UnknownRoute(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AuthRoutesMounted(t *testing.T) {
	env := setupTestEnv(t, envOptions{})
	userID, token := env.signup(t, "alice")

	w := env.do(t, http.MethodGet, "/auth/me", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"username":"alice"}`, userID), w.Body.String())
}

func TestRouter_UsersGate(t *testing.T) {
	env := setupTestEnv(t, envOptions{usersRequireAuth: true})
	_, token := env.signup(t, "alice")

	w := env.do(t, http.MethodGet, "/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))

	w = env.do(t, http.MethodGet, "/users", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PredictRequiresToken(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	w := env.do(t, http.MethodPost, "/predict", gin.H{}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/predict", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func (e *testEnv) loginWithTokenFrom(t *testing.T, remoteAddr, forwardedFor string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, testPrefix+"/auth/login-with-token", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
		req.Header.Set("X-Real-IP", forwardedFor)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w.Code
}

func TestRouter_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	env := setupTestEnv(t, envOptions{})

	for i := 0; i < 10; i++ {
		code := env.loginWithTokenFrom(t, "203.0.113.7:40000", fmt.Sprintf("198.51.100.%d", i))
		require.NotEqual(t, http.StatusTooManyRequests, code, "request %d", i)
	}

	code := env.loginWithTokenFrom(t, "203.0.113.7:40000", "198.51.100.200")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestRouter_RateLimitHonorsTrustedProxy(t *testing.T) {
	env := setupTestEnv(t, envOptions{trustedProxies: []string{"10.0.0.1"}})

	// Distinct clients behind the proxy get their own windows.
	for i := 0; i < 12; i++ {
		code := env.loginWithTokenFrom(t, "10.0.0.1:5000", fmt.Sprintf("198.51.100.%d", i))
		require.NotEqual(t, http.StatusTooManyRequests, code, "client %d", i)
	}

	// The same forwarded client is still limited.
	for i := 0; i < 10; i++ {
		env.loginWithTokenFrom(t, "10.0.0.1:5000", "198.51.100.250")
	}
	assert.Equal(t, http.StatusTooManyRequests, env.loginWithTokenFrom(t, "10.0.0.1:5000", "198.51.100.250"))
}

func TestRouter_StrictTransportSecurity(t *testing.T) {
	send := func(env *testEnv, proto string) string {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		if proto != "" {
			req.Header.Set("X-Forwarded-Proto", proto)
		}
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w.Header().Get("Strict-Transport-Security")
	}

	disabled := setupTestEnv(t, envOptions{})
	assert.Empty(t, send(disabled, "https"))

	enabled := setupTestEnv(t, envOptions{hstsMaxAge: 31536000})
	assert.Equal(t, "max-age=31536000; includeSubDomains", send(enabled, "https"))
	assert.Empty(t, send(enabled, ""))
}

func countAuditEvents(t *testing.T, env *testEnv, action string) int64 {
	t.Helper()
	env.audit.Wait()
	var count int64
	require.NoError(t, env.db.DB.WithContext(context.Background()).
		Model(&entities.AuditEvent{}).
		Where("action = ?", action).
		Count(&count).Error)
	return count
}
