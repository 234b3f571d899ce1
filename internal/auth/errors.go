package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/database"
)

// RespondError translates service errors into HTTP responses.
// Unknown errors are logged and reported as 500 without details.
func RespondError(c *gin.Context, err error) {
	switch {
	case errorIs(err, ErrNotAuthenticated, ErrInvalidToken):
		RespondUnauthorized(c)
	case errors.Is(err, ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
	case errorIs(err, ErrUserExists, database.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Username already registered"})
	case errorIs(err, ErrUserNotFound, database.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, ErrBadCredentials):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Incorrect username or password"})
	case errors.Is(err, ErrPasswordTooLong):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrPasswordTooLong.Error()})
	case errors.Is(err, ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": RateLimitedMessage})
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func errorIs(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
