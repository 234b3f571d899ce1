package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/database"
	auditRepo "github.com/mrlokans/houseprice/internal/database/audit"
	"github.com/mrlokans/houseprice/internal/database/predictions"
	"github.com/mrlokans/houseprice/internal/database/users"
	http_controllers "github.com/mrlokans/houseprice/internal/http"
	"github.com/mrlokans/houseprice/internal/logging"
	"github.com/mrlokans/houseprice/internal/prediction"
	"github.com/mrlokans/houseprice/internal/scheduler"
	"github.com/mrlokans/houseprice/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired services of one process.
type App struct {
	Config    *config.Config
	DB        *database.Database
	Users     *users.Repository
	Auth      *auth.Service
	Audit     *audit.Service
	Predict   *prediction.Service
	Model     *prediction.LazyModel
	Tasks     *tasks.Client // nil when the task queue is disabled
	Scheduler *scheduler.AuditCleanupScheduler
}

// NewApp opens the database and builds every service from cfg. A missing
// AUTH_SECRET_KEY is replaced by a random per-process key.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg.Auth.SecretKey == "" {
		secret, err := auth.GenerateSecretKey()
		if err != nil {
			return nil, fmt.Errorf("generate secret key: %w", err)
		}
		cfg.Auth.SecretKey = secret
		log.Warn().Msg("AUTH_SECRET_KEY is not set; using a generated key, tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	if hasher.Cost() != cfg.Auth.BcryptCost {
		log.Warn().
			Int("configured", cfg.Auth.BcryptCost).
			Int("cost", hasher.Cost()).
			Msg("AUTH_BCRYPT_COST out of range, using bcrypt default")
	}

	usersRepo := users.NewRepository(db.DB)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB))
	model := prediction.NewLazyModel(cfg.Model.Path)

	app := &App{
		Config:  cfg,
		DB:      db,
		Users:   usersRepo,
		Auth:    auth.NewService(usersRepo, hasher, tokens),
		Audit:   auditService,
		Predict: prediction.NewService(model, predictions.NewRepository(db.DB)),
		Model:   model,
	}

	if cfg.Tasks.Enabled {
		app.Tasks, err = tasks.NewClient(cfg.Database.URL, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.Tasks.Register(tasks.NewCleanupAuditEventsQueue(auditService))
	}

	app.Scheduler = scheduler.NewAuditCleanupScheduler(cfg.Audit.CleanupSchedule, app.CleanupAuditEvents)

	return app, nil
}

// CleanupAuditEvents purges audit events past the retention window. With a
// task queue the purge is enqueued, otherwise it runs inline.
func (a *App) CleanupAuditEvents(ctx context.Context) error {
	task := tasks.CleanupAuditEventsTask{RetentionDays: a.Config.Audit.RetentionDays}

	if a.Tasks != nil {
		ids, err := a.Tasks.Add(task).Ctx(ctx).Save()
		if err != nil {
			return fmt.Errorf("enqueue audit cleanup: %w", err)
		}
		log.Info().Strs("task_ids", ids).Msg("audit cleanup enqueued")
		return nil
	}

	deleted, err := a.Audit.DeleteOldEvents(ctx, task.Retention())
	if err != nil {
		return fmt.Errorf("cleanup audit events: %w", err)
	}
	log.Info().Int64("deleted", deleted).Msg("audit cleanup finished")
	return nil
}

// Router builds the HTTP router for the app.
func (a *App) Router(version string) *http_controllers.Router {
	limits := auth.DefaultRateLimitConfig()
	limits.Limit = a.Config.RateLimit.Limit
	limits.Window = a.Config.RateLimit.Window
	limiter := auth.NewRateLimiter(limits)

	return http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:          a.DB,
		UsersRepo:         a.Users,
		Audit:             a.Audit,
		AuthService:       a.Auth,
		AuthMiddleware:    auth.NewMiddleware(a.Auth),
		RateLimiter:       limiter,
		PredictionService: a.Predict,
		APIPrefix:         a.Config.HTTP.APIPrefix,
		TrustedProxies:    a.Config.HTTP.TrustedProxies,
		HSTSMaxAge:        a.Config.HTTP.HSTSMaxAge,
		UsersRequireAuth:  a.Config.Users.RequireAuth,
		Version:           version,
		Logger:            log.Logger,
	})
}

// Close waits for pending audit writes and releases the stores.
func (a *App) Close() {
	a.Audit.Wait()
	if a.Tasks != nil {
		if err := a.Tasks.Close(); err != nil {
			log.Error().Err(err).Msg("error closing task client")
		}
	}
	if err := a.DB.Close(); err != nil {
		log.Error().Err(err).Msg("error closing database")
	}
}

func Serve(handler http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// kill (no param) default sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("server exiting")
}

func Run(cfg *config.Config, version string) {
	logging.Init(cfg.Log)
	log.Info().Str("version", version).Msg("starting houseprice")

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize")
	}
	defer app.Close()

	if _, err := app.Model.Load(); err != nil {
		log.Warn().Err(err).Str("path", cfg.Model.Path).Msg("prediction model not loaded; /predict will answer 503")
	}

	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	if app.Tasks != nil {
		go app.Tasks.Start(bgCtx)
	}
	if err := app.Scheduler.Start(bgCtx); err != nil {
		log.Error().Err(err).Msg("audit cleanup scheduler not started")
	}

	router := app.Router(version)

	onShutdown := func(ctx context.Context) {
		router.Stop()
		app.Scheduler.Stop()
		if app.Tasks != nil {
			app.Tasks.Stop(ctx)
		}
		cancelBackground()
	}

	Serve(router, cfg, onShutdown)
}
