package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/logging"
)

// Router wraps the gin engine together with the controllers that own
// background resources.
type Router struct {
	*gin.Engine
	authController *auth.AuthController
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *Router {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, trusting none")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(logging.RequestID())
	router.Use(logging.RequestLogger(cfg.Logger))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.HSTSMaxAge > 0 {
		router.Use(auth.StrictTransportSecurityMiddleware(cfg.HSTSMaxAge))
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)

	api := router.Group(cfg.APIPrefix)

	authController := auth.NewAuthController(cfg.AuthService, cfg.AuthMiddleware, cfg.RateLimiter, cfg.Audit)
	authController.RegisterRoutes(api)

	// User management is open unless explicitly gated
	usersGroup := api.Group("/users")
	if cfg.UsersRequireAuth {
		usersGroup.Use(cfg.AuthMiddleware.Handler())
	}
	NewUsersController(cfg.UsersRepo, cfg.Audit).RegisterRoutes(usersGroup)

	if cfg.Audit != nil {
		auditGroup := api.Group("/audit", cfg.AuthMiddleware.Handler())
		NewAuditController(cfg.Audit).RegisterRoutes(auditGroup)
	}

	if cfg.PredictionService != nil {
		predictGroup := api.Group("/predict", cfg.AuthMiddleware.Handler())
		NewPredictionsController(cfg.PredictionService, cfg.Audit).RegisterRoutes(predictGroup)
	}

	return &Router{Engine: router, authController: authController}
}

// Stop releases background resources held by the controllers.
func (r *Router) Stop() {
	r.authController.Stop()
}
