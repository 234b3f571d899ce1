package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/prediction"
)

// PredictionResult is returned after a prediction is stored.
type PredictionResult struct {
	Prediction   float64 `json:"prediction"`
	PredictionID uint    `json:"prediction_id"`
}

// PredictionResponse is one row of the caller's prediction history.
type PredictionResponse struct {
	ID         uint    `json:"id"`
	UserID     uint    `json:"user_id"`
	Prediction float64 `json:"prediction"`
}

// PredictionsController serves the prediction endpoints. Routes must sit
// behind the authentication gate.
type PredictionsController struct {
	service *prediction.Service
	audit   *audit.Service
}

// NewPredictionsController creates a new PredictionsController. auditService may be nil.
func NewPredictionsController(service *prediction.Service, auditService *audit.Service) *PredictionsController {
	return &PredictionsController{service: service, audit: auditService}
}

// RegisterRoutes registers the prediction endpoints on group.
func (pc *PredictionsController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("", pc.Predict)
	group.GET("", pc.List)
}

// Predict validates a district description, runs the model and stores the result.
func (pc *PredictionsController) Predict(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		auth.RespondUnauthorized(c)
		return
	}

	var in prediction.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondValidation(c, http.StatusUnprocessableEntity, err)
		return
	}

	record, err := pc.service.PredictAndStore(c.Request.Context(), user.ID, in)
	if err != nil {
		if errors.Is(err, prediction.ErrModelUnavailable) {
			log.Error().Err(err).Msg("prediction model unavailable")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Prediction model unavailable"})
			return
		}
		respondInternalError(c, err, "predict")
		return
	}

	if pc.audit != nil {
		pc.audit.LogPrediction(user.ID, record.ID, auditRequest(c))
	}

	c.JSON(http.StatusOK, PredictionResult{
		Prediction:   record.Prediction,
		PredictionID: record.ID,
	})
}

// List returns the caller's predictions, newest first.
func (pc *PredictionsController) List(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		auth.RespondUnauthorized(c)
		return
	}

	rows, err := pc.service.List(c.Request.Context(), user.ID)
	if err != nil {
		respondInternalError(c, err, "list predictions")
		return
	}

	resp := make([]PredictionResponse, 0, len(rows))
	for _, p := range rows {
		resp = append(resp, PredictionResponse{ID: p.ID, UserID: p.UserID, Prediction: p.Prediction})
	}
	c.JSON(http.StatusOK, resp)
}
