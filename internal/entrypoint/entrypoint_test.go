package entrypoint

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		HTTP:     config.HTTP{APIPrefix: config.DefaultAPIPrefix},
		Database: config.Database{URL: filepath.Join(t.TempDir(), "app.db") + "?_busy_timeout=5000", LogLevel: "silent"},
		Auth: config.Auth{
			Algorithm:   "HS256",
			TokenExpiry: 30 * time.Minute,
			BcryptCost:  4,
		},
		RateLimit: config.RateLimit{Limit: 10, Window: time.Minute},
		Model:     config.Model{Path: "../../model.json"},
		Audit:     config.Audit{RetentionDays: 30},
	}
}

func TestNewApp_GeneratesSecretKey(t *testing.T) {
	cfg := testConfig(t)

	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Len(t, cfg.Auth.SecretKey, 64)
	assert.Nil(t, app.Tasks)
}

func TestNewApp_KeepsConfiguredSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.SecretKey = "configured-secret-configured-secret"

	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "configured-secret-configured-secret", cfg.Auth.SecretKey)
}

func TestNewApp_RejectsUnknownAlgorithm(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.Algorithm = "RS256"

	_, err := NewApp(cfg)
	assert.Error(t, err)
}

func TestNewApp_OutOfRangeBcryptCostFallsBack(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.BcryptCost = 99

	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Auth.Register(context.Background(), "alice", "secret")
	assert.NoError(t, err)
}

func TestApp_RouterServesRequests(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	router := app.Router("test")
	defer router.Stop()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, config.DefaultAPIPrefix+"/auth/register",
		bytes.NewBufferString(`{"username":"alice","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApp_CleanupAuditEventsInline(t *testing.T) {
	app, err := NewApp(testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	require.NoError(t, app.Audit.Log(ctx, &entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)}))
	require.NoError(t, app.Audit.Log(ctx, &entities.AuditEvent{Action: "fresh"}))

	require.NoError(t, app.CleanupAuditEvents(ctx))

	var count int64
	require.NoError(t, app.DB.DB.Model(&entities.AuditEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestApp_CleanupAuditEventsQueued(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tasks = config.Tasks{
		Enabled:         true,
		Workers:         1,
		ReleaseAfter:    time.Minute,
		CleanupInterval: time.Hour,
	}

	app, err := NewApp(cfg)
	require.NoError(t, err)
	defer app.Close()
	require.NotNil(t, app.Tasks)

	ctx := context.Background()
	require.NoError(t, app.Audit.Log(ctx, &entities.AuditEvent{Action: "old", CreatedAt: time.Now().Add(-60 * 24 * time.Hour)}))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go app.Tasks.Start(runCtx)

	require.NoError(t, app.CleanupAuditEvents(ctx))

	assert.Eventually(t, func() bool {
		var count int64
		if err := app.DB.DB.Model(&entities.AuditEvent{}).Count(&count).Error; err != nil {
			return false
		}
		return count == 0
	}, 5*time.Second, 50*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(ctx, 5*time.Second)
	defer stopCancel()
	app.Tasks.Stop(stopCtx)
}
