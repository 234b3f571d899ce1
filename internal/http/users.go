package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/database/users"
	"github.com/mrlokans/houseprice/internal/entities"
)

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=100"`
}

// UsersController exposes CRUD over stored users.
type UsersController struct {
	repo  *users.Repository
	audit *audit.Service
}

// NewUsersController creates a new UsersController. auditService may be nil.
func NewUsersController(repo *users.Repository, auditService *audit.Service) *UsersController {
	return &UsersController{repo: repo, audit: auditService}
}

// RegisterRoutes registers the user endpoints on group.
func (uc *UsersController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", uc.List)
	group.DELETE("", uc.DeleteAll)
	group.GET("/:user_id", uc.Get)
	group.PATCH("/:user_id", uc.Update)
	group.DELETE("/:user_id", uc.Delete)
}

// List returns every user ordered by id.
func (uc *UsersController) List(c *gin.Context) {
	all, err := uc.repo.List(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "list users")
		return
	}

	resp := make([]UserResponse, 0, len(all))
	for _, u := range all {
		resp = append(resp, toUserResponse(&u))
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns a single user.
func (uc *UsersController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	user, err := uc.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		auth.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// Update renames a user. An empty body leaves the user unchanged.
func (uc *UsersController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, http.StatusBadRequest, err)
		return
	}

	ctx := c.Request.Context()
	var (
		user *entities.User
		err  error
	)
	if req.Username == nil {
		user, err = uc.repo.GetByID(ctx, id)
	} else {
		user, err = uc.repo.UpdateUsername(ctx, id, *req.Username)
	}
	if err != nil {
		auth.RespondError(c, err)
		return
	}

	if req.Username != nil {
		uc.log(c, entities.AuditActionUserUpdate, fmt.Sprintf("Renamed user %d to %q", id, user.Username), &id)
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteAll removes every user together with their predictions.
func (uc *UsersController) DeleteAll(c *gin.Context) {
	deleted, err := uc.repo.DeleteAll(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "delete users")
		return
	}

	uc.log(c, entities.AuditActionUserDeleteAll, fmt.Sprintf("Deleted %d users", deleted), nil)
	c.JSON(http.StatusOK, gin.H{
		"message": "All users deleted",
		"deleted": deleted,
	})
}

// Delete removes one user together with their predictions.
func (uc *UsersController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}

	found, err := uc.repo.Delete(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, err, "delete user")
		return
	}
	if !found {
		respondNotFound(c, "User")
		return
	}

	uc.log(c, entities.AuditActionUserDelete, fmt.Sprintf("Deleted user %d", id), &id)
	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted", UserID: id})
}

func (uc *UsersController) log(c *gin.Context, action, description string, entityID *uint) {
	if uc.audit == nil {
		return
	}
	uc.audit.LogUser(actorID(c), action, description, entityID, auditRequest(c))
}

func toUserResponse(u *entities.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username}
}
