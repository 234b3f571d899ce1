package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/validation"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// MessageResponse acknowledges a mutation on a single user.
type MessageResponse struct {
	Message string `json:"message"`
	UserID  uint   `json:"user_id"`
}

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).
		Str("context", context).
		Str("path", c.Request.URL.Path).
		Msg("internal error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// respondValidation renders binding errors field by field with the given status.
func respondValidation(c *gin.Context, status int, err error) {
	details := validation.Details(err)
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   validation.Message(details),
		Details: details,
	})
}

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// actorID returns the authenticated user's id, or 0 on open routes.
func actorID(c *gin.Context) uint {
	return auth.GetUserID(c)
}

func auditRequest(c *gin.Context) audit.Request {
	return audit.Request{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
