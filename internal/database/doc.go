// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (sqlite or postgres), migrations, transactions
//	├── errors.go        # Store-level sentinel errors shared by repositories
//	├── users/           # Credential store
//	├── predictions/     # Persisted model inferences
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase(cfg.Database)
//
//	usersRepo := users.NewRepository(db.DB)
//	user, err := usersRepo.FindByUsername(ctx, "alice")
//
// Repositories return ErrNotFound and ErrConflict (wrapped) so callers can
// match them with errors.Is without knowing which driver is in use.
package database
