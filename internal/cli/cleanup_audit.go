package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/houseprice/internal/config"
	"github.com/mrlokans/houseprice/internal/entrypoint"
	"github.com/mrlokans/houseprice/internal/tasks"
)

// CleanupAuditCommand purges audit events older than the retention window.
type CleanupAuditCommand struct {
	RetentionDays int
	DatabaseURL   string
	DryRun        bool

	out io.Writer
}

func NewCleanupAuditCommand() *CleanupAuditCommand {
	return &CleanupAuditCommand{out: os.Stdout}
}

func (cmd *CleanupAuditCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cleanup-audit", flag.ContinueOnError)

	fs.IntVar(&cmd.RetentionDays, "days", 0, "Keep events newer than this many days (defaults to AUDIT_RETENTION_DAYS)")
	fs.StringVar(&cmd.DatabaseURL, "db", "", "Database URL (defaults to DATABASE_URL)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show how many events would be deleted without deleting them")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cleanup-audit [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete audit events older than the retention window.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.RetentionDays < 0 {
		return fmt.Errorf("-days must not be negative")
	}
	return nil
}

func (cmd *CleanupAuditCommand) Run(cfg *config.Config) error {
	if cmd.DatabaseURL != "" {
		cfg.Database.URL = cmd.DatabaseURL
	}
	if cmd.RetentionDays > 0 {
		cfg.Audit.RetentionDays = cmd.RetentionDays
	}
	cfg.Tasks.Enabled = false

	app, err := entrypoint.NewApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	days := cfg.Audit.RetentionDays
	if days <= 0 {
		days = tasks.DefaultAuditRetentionDays
	}
	retention := time.Duration(days) * 24 * time.Hour

	if cmd.DryRun {
		cutoff := time.Now().Add(-retention)
		var count int64
		if err := app.DB.DB.WithContext(ctx).
			Table("audit_events").
			Where("created_at < ?", cutoff).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count audit events: %w", err)
		}
		fmt.Fprintf(cmd.out, "DRY RUN: %d audit events older than %d days would be deleted\n", count, days)
		return nil
	}

	deleted, err := app.Audit.DeleteOldEvents(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to delete audit events: %w", err)
	}

	fmt.Fprintf(cmd.out, "Deleted %d audit events older than %d days\n", deleted, days)
	return nil
}
