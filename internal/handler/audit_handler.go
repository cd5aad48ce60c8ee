package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type auditLogService interface {
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error)
}

// AuditHandler lists audit log entries.
type AuditHandler struct {
	service auditLogService
}

// NewAuditHandler constructs AuditHandler.
func NewAuditHandler(svc auditLogService) *AuditHandler {
	return &AuditHandler{service: svc}
}

type auditLogQuery struct {
	Action   string `form:"action"`
	Entity   string `form:"entity"`
	ActorID  string `form:"actorId"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// List godoc
// @Summary Page through the audit log
// @Tags Audit
// @Produce json
// @Param action query string false "Action"
// @Param entity query string false "Entity"
// @Param actorId query string false "Actor"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	var query auditLogQuery
	if !bindQuery(c, &query) {
		return
	}
	logs, pagination, err := h.service.List(c.Request.Context(), models.AuditLogFilter{
		Action:   query.Action,
		Entity:   query.Entity,
		ActorID:  query.ActorID,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
