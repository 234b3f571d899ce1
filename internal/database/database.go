package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the database named by cfg.URL and migrates the schema.
// postgres:// and postgresql:// URLs use the pgx-backed postgres driver;
// anything else is treated as a sqlite path or DSN.
func NewDatabase(cfg config.Database) (*Database, error) {
	db, err := gorm.Open(dialector(cfg.URL), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Str("driver", db.Dialector.Name()).Msg("database initialized")

	return &Database{DB: db}, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Prediction{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithTx runs fn inside a transaction on db: commit on nil, rollback on error or panic.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

func dialector(url string) gorm.Dialector {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return postgres.Open(url)
	}
	return sqlite.Open(sqliteDSN(url))
}

// sqliteDefaults are appended to every sqlite DSN unless already set.
// Foreign keys make prediction rows follow their user. Transactions take the
// write lock on BEGIN, so a read-then-update never upgrades a shared lock
// while another connection is writing.
var sqliteDefaults = []struct{ key, value string }{
	{"_foreign_keys", "on"},
	{"_busy_timeout", "5000"},
	{"_txlock", "immediate"},
	{"_journal_mode", "WAL"},
}

func sqliteDSN(path string) string {
	dsn := path
	for _, p := range sqliteDefaults {
		if hasDSNParam(dsn, p.key) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p.key + "=" + p.value
	}
	return dsn
}

func hasDSNParam(dsn, key string) bool {
	_, query, found := strings.Cut(dsn, "?")
	if !found {
		return false
	}
	for _, kv := range strings.Split(query, "&") {
		k, _, _ := strings.Cut(kv, "=")
		if k == key {
			return true
		}
		// go-sqlite3 aliases: _journal for _journal_mode, _timeout for _busy_timeout.
		if key == "_journal_mode" && k == "_journal" {
			return true
		}
		if key == "_busy_timeout" && k == "_timeout" {
			return true
		}
	}
	return false
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
