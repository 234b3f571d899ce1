package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		RateLimit
		Users
		Model
		Audit
		Tasks
		Log
	}

	HTTP struct {
		Port      int32
		Host      string
		APIPrefix string

		// TrustedProxies lists the proxy IPs or CIDRs allowed to set
		// X-Forwarded-For. Empty means the peer address is the client.
		TrustedProxies []string
		HSTSMaxAge     int // seconds; 0 disables Strict-Transport-Security
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		URL      string // sqlite file path or postgres:// DSN
		LogLevel string // gorm logger level: silent, error, warn, info
	}

	Auth struct {
		SecretKey   string
		Algorithm   string        // HS256, HS384 or HS512
		TokenExpiry time.Duration // ACCESS_TOKEN_EXPIRE_MINUTES
		BcryptCost  int
	}

	RateLimit struct {
		Limit  int           // requests allowed per window on the login-with-token endpoint
		Window time.Duration // window length
	}

	Users struct {
		RequireAuth bool // put the user CRUD endpoints behind the bearer gate
	}

	Model struct {
		Path string
	}

	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format: "0 3 * * *" = daily at 03:00
	}

	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}

	Log struct {
		Level  string
		Format string // json or console
	}
)

// NewConfig reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment variables win.
func NewConfig() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8001)
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("api_prefix", DefaultAPIPrefix)
	v.SetDefault("trusted_proxies", "")
	v.SetDefault("hsts_max_age", 0)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_url", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_secret_key", "") // Generated per process if empty
	v.SetDefault("auth_token_algorithm", "HS256")
	v.SetDefault("access_token_expire_minutes", 30)
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("rate_limit", "10/minute")
	v.SetDefault("users_require_auth", false)

	v.SetDefault("model_path", DefaultModelPath)

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	limit, window, err := ParseRate(v.GetString("RATE_LIMIT"))
	if err != nil {
		log.Warn().Err(err).Msg("ignoring RATE_LIMIT, using 10/minute")
		limit, window = 10, time.Minute
	}

	return &Config{
		HTTP: HTTP{
			Port:      v.GetInt32("PORT"),
			Host:      v.GetString("HOST"),
			APIPrefix: strings.TrimRight(v.GetString("API_PREFIX"), "/"),

			TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
			HSTSMaxAge:     v.GetInt("HSTS_MAX_AGE"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL:      v.GetString("DATABASE_URL"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			SecretKey:   v.GetString("AUTH_SECRET_KEY"),
			Algorithm:   strings.ToUpper(v.GetString("AUTH_TOKEN_ALGORITHM")),
			TokenExpiry: time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
			BcryptCost:  v.GetInt("AUTH_BCRYPT_COST"),
		},
		RateLimit: RateLimit{
			Limit:  limit,
			Window: window,
		},
		Users: Users{
			RequireAuth: v.GetBool("USERS_REQUIRE_AUTH"),
		},
		Model: Model{
			Path: v.GetString("MODEL_PATH"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

// ParseRate parses limits written as "<count>/<unit>", e.g. "10/minute" or "100/hour".
func ParseRate(s string) (int, time.Duration, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid rate %q: expected <count>/<unit>", s)
	}

	count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || count <= 0 {
		return 0, 0, fmt.Errorf("invalid rate %q: count must be a positive integer", s)
	}

	var window time.Duration
	switch strings.ToLower(strings.TrimSpace(parts[1])) {
	case "second", "seconds", "s":
		window = time.Second
	case "minute", "minutes", "m":
		window = time.Minute
	case "hour", "hours", "h":
		window = time.Hour
	case "day", "days", "d":
		window = 24 * time.Hour
	default:
		return 0, 0, fmt.Errorf("invalid rate %q: unknown unit %q", s, parts[1])
	}

	return count, window, nil
}

// splitList splits a comma-separated value, dropping blanks. Returns nil when empty.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
