package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/houseprice/internal/audit"
	"github.com/mrlokans/houseprice/internal/auth"
	"github.com/mrlokans/houseprice/internal/entities"
)

const (
	defaultAuditPageSize = 25
	maxAuditPageSize     = 100
)

// AuditEventsResponse is one page of the caller's audit trail.
type AuditEventsResponse struct {
	Events      []entities.AuditEvent `json:"events"`
	Page        int                   `json:"page"`
	Limit       int                   `json:"limit"`
	TotalPages  int                   `json:"total_pages"`
	TotalEvents int64                 `json:"total_events"`
}

// AuditController serves the caller's own audit events. Routes must sit
// behind the authentication gate.
type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// RegisterRoutes registers the audit endpoints on group.
func (ac *AuditController) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", ac.GetAuditEvents)
}

// GetAuditEvents returns paginated audit events of the authenticated user
// GET /audit?page=1&limit=25
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		auth.RespondUnauthorized(c)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultAuditPageSize)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxAuditPageSize {
		limit = defaultAuditPageSize
	}

	events, total, err := ac.auditService.GetEvents(c.Request.Context(), userID, limit, (page-1)*limit)
	if err != nil {
		respondInternalError(c, err, "list audit events")
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, AuditEventsResponse{
		Events:      events,
		Page:        page,
		Limit:       limit,
		TotalPages:  totalPages,
		TotalEvents: total,
	})
}
