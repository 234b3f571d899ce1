// Package prediction turns district descriptions into model inputs, runs the
// house value model and stores every result with the user who asked for it.
package prediction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/database/predictions"
	"github.com/mrlokans/houseprice/internal/entities"
)

// Service runs predictions and persists them.
type Service struct {
	model Model
	repo  *predictions.Repository
}

// NewService creates a new prediction service.
func NewService(model Model, repo *predictions.Repository) *Service {
	return &Service{model: model, repo: repo}
}

// PredictAndStore runs the model on in and saves the result for userID.
func (s *Service) PredictAndStore(ctx context.Context, userID uint, in Input) (*entities.Prediction, error) {
	value, err := s.model.Predict(BuildFeatureVector(in))
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	record := Record(userID, in, value)
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	log.Debug().
		Uint("user_id", userID).
		Uint("prediction_id", record.ID).
		Float64("prediction", value).
		Msg("prediction stored")

	return record, nil
}

// List returns the predictions of userID, newest first.
func (s *Service) List(ctx context.Context, userID uint) ([]entities.Prediction, error) {
	return s.repo.ListByUser(ctx, userID)
}
