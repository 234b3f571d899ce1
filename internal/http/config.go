package http

import (
	"github.com/rs/zerolog"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/database"
	"github.com/mrlokans/houseprice/internal/database/users"
	"github.com/mrlokans/houseprice/internal/prediction"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	UsersRepo *users.Repository
	Audit     *audit.Service // optional

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	RateLimiter    *auth.RateLimiter // guards login-with-token; nil disables limiting

	// Prediction
	PredictionService *prediction.Service

	// Routing
	APIPrefix        string
	UsersRequireAuth bool

	// TrustedProxies may set X-Forwarded-For; nil trusts none and the
	// rate limiter keys on the peer address.
	TrustedProxies []string
	HSTSMaxAge     int // 0 disables Strict-Transport-Security

	// Application info
	Version string

	// Request logging; the zero value logs nothing.
	Logger zerolog.Logger
}
