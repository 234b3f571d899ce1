package predictions

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/houseprice/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a prediction and fills in its ID.
func (r *Repository) Create(ctx context.Context, prediction *entities.Prediction) error {
	if err := r.db.WithContext(ctx).Create(prediction).Error; err != nil {
		return fmt.Errorf("failed to save prediction: %w", err)
	}
	return nil
}

// ListByUser returns the predictions of userID, newest first.
// A zero userID lists predictions of every user.
func (r *Repository) ListByUser(ctx context.Context, userID uint) ([]entities.Prediction, error) {
	var result []entities.Prediction
	query := r.db.WithContext(ctx).Model(&entities.Prediction{})
	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Order("id DESC").Find(&result).Error
	return result, err
}
