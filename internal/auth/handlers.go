package auth

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/entities"
	"github.com/mrlokans/houseprice/internal/validation"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=100"`
	Password string `json:"password" form:"password" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service     *Service
	middleware  *Middleware
	rateLimiter *RateLimiter
	audit       *audit.Service
}

// NewAuthController creates a new authentication controller. The rate
// limiter guards the form login endpoint; auditService may be nil.
func NewAuthController(service *Service, middleware *Middleware, rateLimiter *RateLimiter, auditService *audit.Service) *AuthController {
	return &AuthController{
		service:     service,
		middleware:  middleware,
		rateLimiter: rateLimiter,
		audit:       auditService,
	}
}

// RegisterRoutes registers authentication routes under group.
func (ac *AuthController) RegisterRoutes(group *gin.RouterGroup) {
	g := group.Group("/auth")
	g.POST("/register", ac.Register)
	g.POST("/login", ac.Login)

	if ac.rateLimiter != nil {
		g.POST("/login-with-token", ac.rateLimiter.Middleware(), ac.LoginWithToken)
	} else {
		g.POST("/login-with-token", ac.LoginWithToken)
	}

	protected := g.Group("", ac.middleware.Handler())
	protected.GET("/me", ac.Me)
	protected.PATCH("/change-password/:user_id", ac.ChangePassword)
	protected.PATCH("/admin/reset-password/:user_id", ac.AdminResetPassword)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Register creates a new account.
func (ac *AuthController) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	user, err := ac.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		ac.logAuth(c, 0, entities.AuditActionRegister, err)
		RespondError(c, err)
		return
	}
	ac.logAuth(c, user.ID, entities.AuditActionRegister, nil)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user_id": user.ID,
	})
}

// Login exchanges a JSON username/password body for an access token.
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	ac.login(c, req)
}

// LoginWithToken accepts form-encoded (or JSON) credentials, as OAuth2
// password-flow clients send them.
func (ac *AuthController) LoginWithToken(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}
	ac.login(c, req)
}

func (ac *AuthController) login(c *gin.Context, req credentialsRequest) {
	user, token, err := ac.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var userID uint
		if user != nil {
			userID = user.ID
		}
		ac.logAuth(c, userID, entities.AuditActionLogin, err)
		RespondError(c, err)
		return
	}
	ac.logAuth(c, user.ID, entities.AuditActionLogin, nil)

	c.JSON(http.StatusOK, token)
}

// Me returns the authenticated identity.
func (ac *AuthController) Me(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
	})
}

// ChangePassword lets the authenticated user change their own password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	actor, ok := CurrentUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	targetID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	_, err := ac.service.ChangePassword(c.Request.Context(), actor, targetID, req.OldPassword, req.NewPassword)
	ac.logAuth(c, actor.ID, entities.AuditActionChangePassword, err)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password changed",
		"user_id": targetID,
	})
}

// AdminResetPassword sets another user's password without the old one.
func (ac *AuthController) AdminResetPassword(c *gin.Context) {
	actor, ok := CurrentUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	targetID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidBody(c, err)
		return
	}

	_, err := ac.service.AdminResetPassword(c.Request.Context(), actor, targetID, req.NewPassword)
	if ac.audit != nil {
		ac.audit.LogAdminReset(actor.ID, targetID, auditRequest(c), err)
	}
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset",
		"user_id": targetID,
	})
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, err error) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, auditRequest(c), err)
}

func auditRequest(c *gin.Context) audit.Request {
	return audit.Request{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// parseUserID reads the :user_id path parameter, responding 400 when invalid.
func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return uint(id), true
}

func respondInvalidBody(c *gin.Context, err error) {
	details := validation.Details(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":   validation.Message(details),
		"details": details,
	})
}
