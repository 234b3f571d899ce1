// Package users is the credential store: username to password hash records.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.FindByUsername(ctx, "alice")
//	if errors.Is(err, database.ErrNotFound) { ... }
package users

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/houseprice/internal/database"
	"github.com/mrlokans/houseprice/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUsername retrieves a user by username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// Create inserts a new user. The username pre-check gives a clean error in the
// common case; concurrent registrations are caught by the unique index and
// reported as database.ErrConflict as well.
func (r *Repository) Create(ctx context.Context, username, passwordHash string) (*entities.User, error) {
	_, err := r.FindByUsername(ctx, username)
	if err == nil {
		return nil, database.ErrConflict
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	user := &entities.User{
		Username:     username,
		PasswordHash: passwordHash,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UpdatePasswordHash replaces the stored hash of user id. The row is locked
// for the duration of the transaction on databases that support it.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uint, passwordHash string) (*entities.User, error) {
	var user entities.User
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			return err
		}
		user.PasswordHash = passwordHash
		return tx.Model(&user).Update("password_hash", passwordHash).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// UpdateUsername renames user id.
func (r *Repository) UpdateUsername(ctx context.Context, id uint, username string) (*entities.User, error) {
	var user entities.User
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
			return err
		}
		if user.Username == username {
			return nil
		}
		user.Username = username
		return tx.Model(&user).Update("username", username).Error
	})
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &user, nil
}

// List returns all users ordered by ID.
func (r *Repository) List(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

// Count returns the number of users.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

// Delete removes user id and its predictions. Returns false if no such user.
func (r *Repository) Delete(ctx context.Context, id uint) (bool, error) {
	var deleted int64
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&entities.Prediction{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.User{}, id)
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return deleted > 0, nil
}

// DeleteAll removes every user and prediction. Returns the number of users deleted.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	var deleted int64
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Prediction{}).Error; err != nil {
			return err
		}
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.User{})
		deleted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return deleted, nil
}
