package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type workReportService interface {
	Save(ctx context.Context, actor models.Principal, req service.SaveWorkReportRequest) (*models.WorkReport, error)
	List(ctx context.Context, actor models.Principal, req service.WorkReportQuery) ([]models.WorkReport, error)
	Get(ctx context.Context, actor models.Principal, id string) (*models.WorkReport, error)
	Delete(ctx context.Context, actor models.Principal, id string) error
}

// WorkReportHandler exposes a teacher's own daily work reports.
type WorkReportHandler struct {
	service workReportService
}

// NewWorkReportHandler constructs WorkReportHandler.
func NewWorkReportHandler(svc workReportService) *WorkReportHandler {
	return &WorkReportHandler{service: svc}
}

// Save godoc
// @Summary Create or replace the day's work report
// @Tags Work Reports
// @Accept json
// @Produce json
// @Param payload body service.SaveWorkReportRequest true "Report"
// @Success 200 {object} response.Envelope
// @Router /work-reports [post]
func (h *WorkReportHandler) Save(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.SaveWorkReportRequest
	if !bindJSON(c, &req, "invalid work report payload") {
		return
	}
	report, err := h.service.Save(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// List godoc
// @Summary List the caller's work reports
// @Tags Work Reports
// @Produce json
// @Param date query string false "Date"
// @Param region query string false "Region"
// @Param batchNumber query string false "Batch number"
// @Success 200 {object} response.Envelope
// @Router /work-reports [get]
func (h *WorkReportHandler) List(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var query service.WorkReportQuery
	if !bindQuery(c, &query) {
		return
	}
	reports, err := h.service.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// Get godoc
// @Summary Get one of the caller's work reports
// @Tags Work Reports
// @Produce json
// @Param id path string true "Report ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /work-reports/{id} [get]
func (h *WorkReportHandler) Get(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	report, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Delete godoc
// @Summary Delete one of the caller's work reports
// @Tags Work Reports
// @Param id path string true "Report ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /work-reports/{id} [delete]
func (h *WorkReportHandler) Delete(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
