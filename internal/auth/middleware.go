package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/houseprice/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
)

// ChallengeHeader is sent with every 401 response.
const ChallengeHeader = "Bearer"

// NotAuthenticatedMessage is the body of every 401 response.
const NotAuthenticatedMessage = "Could not validate credentials"

// Middleware is the authentication gate for bearer-protected routes.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler returns a Gin middleware that rejects requests without a valid
// bearer token and attaches the resolved user to the context.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			RespondUnauthorized(c)
			return
		}

		user, err := m.service.CurrentIdentity(c.Request.Context(), token)
		if err != nil {
			if !isAuthError(err) {
				log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to resolve identity")
			}
			RespondUnauthorized(c)
			return
		}

		setUserContext(c, user)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

func isAuthError(err error) bool {
	return errorIs(err, ErrInvalidToken, ErrNotAuthenticated)
}

// setUserContext stores user information in the Gin context.
func setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyUserID, user.ID)
}

// RespondUnauthorized aborts with 401 and a bearer challenge.
func RespondUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", ChallengeHeader)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": NotAuthenticatedMessage})
}

// Helper functions to extract auth data from Gin context

// CurrentUser returns the user attached by the authentication gate.
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok && user != nil {
			return user, true
		}
	}
	return nil, false
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if the request did not pass the gate.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}
