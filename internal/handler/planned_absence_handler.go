package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type plannedAbsenceService interface {
	Create(ctx context.Context, actor models.Principal, req service.CreatePlannedAbsenceRequest) (*models.PlannedAbsenceMergeResult, error)
	List(ctx context.Context, query service.PlannedAbsenceQuery) ([]models.PlannedAbsence, error)
	Cancel(ctx context.Context, actor models.Principal, id string) (*models.PlannedAbsence, error)
}

// PlannedAbsenceHandler exposes planned absence endpoints.
type PlannedAbsenceHandler struct {
	service plannedAbsenceService
}

// NewPlannedAbsenceHandler constructs PlannedAbsenceHandler.
func NewPlannedAbsenceHandler(svc plannedAbsenceService) *PlannedAbsenceHandler {
	return &PlannedAbsenceHandler{service: svc}
}

// Create godoc
// @Summary Declare a planned absence
// @Description Overlapping active ranges of the student are merged into one. Absent marks inside the final range get the reason as note.
// @Tags Planned Absences
// @Accept json
// @Produce json
// @Param payload body service.CreatePlannedAbsenceRequest true "Planned absence"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/planned-absences [post]
func (h *PlannedAbsenceHandler) Create(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreatePlannedAbsenceRequest
	if !bindJSON(c, &req, "invalid planned absence payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if result.Merged {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// List godoc
// @Summary List active planned absences
// @Tags Planned Absences
// @Produce json
// @Param region query string false "Region"
// @Param batchNumber query string false "Batch number, all for any"
// @Param studentId query string false "Student"
// @Param date query string false "Covering date"
// @Param startDate query string false "Overlap start"
// @Param endDate query string false "Overlap end"
// @Success 200 {object} response.Envelope
// @Router /attendance/planned-absences [get]
func (h *PlannedAbsenceHandler) List(c *gin.Context) {
	var query service.PlannedAbsenceQuery
	if !bindQuery(c, &query) {
		return
	}
	items, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Cancel godoc
// @Summary Cancel a planned absence
// @Tags Planned Absences
// @Produce json
// @Param id path string true "Planned absence ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/planned-absences/{id}/cancel [patch]
func (h *PlannedAbsenceHandler) Cancel(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	item, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}
