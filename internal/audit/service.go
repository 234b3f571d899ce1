package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/database/audit"
	"github.com/mrlokans/houseprice/internal/entities"
)

// Request carries the caller details recorded with an event.
type Request struct {
	IPAddress string
	UserAgent string
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Log(context.Background(), event); err != nil {
			log.Error().Err(err).Str("action", event.Action).Msg("failed to log audit event")
		}
	}()
}

// Wait blocks until all pending async events are written.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records an authentication event (register, login, password change).
func (s *Service) LogAuth(userID uint, action string, req Request, err error) {
	event := &entities.AuditEvent{
		UserID:    userID,
		EventType: entities.AuditEventAuth,
		Action:    action,
		IPAddress: req.IPAddress,
		UserAgent: truncate(req.UserAgent, 500),
		Status:    entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAdminReset records a password reset performed on another account.
// Any authenticated user may do this, so every reset is kept with actor and target.
func (s *Service) LogAdminReset(actorID, targetID uint, req Request, err error) {
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventAuth,
		Action:      entities.AuditActionAdminResetPassword,
		Description: fmt.Sprintf("User %d reset the password of user %d", actorID, targetID),
		EntityType:  "user",
		EntityID:    &targetID,
		IPAddress:   req.IPAddress,
		UserAgent:   truncate(req.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogUser records a change made through the user management endpoints.
func (s *Service) LogUser(actorID uint, action, description string, entityID *uint, req Request) {
	event := &entities.AuditEvent{
		UserID:      actorID,
		EventType:   entities.AuditEventUser,
		Action:      action,
		Description: truncate(description, 500),
		EntityType:  "user",
		EntityID:    entityID,
		IPAddress:   req.IPAddress,
		UserAgent:   truncate(req.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// LogPrediction records a stored prediction.
func (s *Service) LogPrediction(userID, predictionID uint, req Request) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventPredict,
		Action:      entities.AuditActionPredict,
		Description: fmt.Sprintf("Prediction %d stored", predictionID),
		EntityType:  "prediction",
		EntityID:    &predictionID,
		IPAddress:   req.IPAddress,
		UserAgent:   truncate(req.UserAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, userID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

// truncate shortens s to at most maxLen bytes without splitting a UTF-8 sequence.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
