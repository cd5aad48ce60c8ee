package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type examPlanService interface {
	Get(ctx context.Context, req service.ExamPlanQuery) (*models.ExamPlanView, error)
	Save(ctx context.Context, actor models.Principal, req service.SaveExamPlanRequest) (*models.ExamPlanView, error)
}

// ExamPlanHandler exposes exam schedule endpoints.
type ExamPlanHandler struct {
	service examPlanService
}

// NewExamPlanHandler constructs ExamPlanHandler.
func NewExamPlanHandler(svc examPlanService) *ExamPlanHandler {
	return &ExamPlanHandler{service: svc}
}

// Get godoc
// @Summary Exam plan of a batch with the region milestone
// @Tags Exam Plan
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string false "Batch number"
// @Success 200 {object} response.Envelope
// @Router /exam-plan [get]
func (h *ExamPlanHandler) Get(c *gin.Context) {
	var query service.ExamPlanQuery
	if !bindQuery(c, &query) {
		return
	}
	view, err := h.service.Get(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Save godoc
// @Summary Upsert the exam plan and region milestone
// @Tags Exam Plan
// @Accept json
// @Produce json
// @Param payload body service.SaveExamPlanRequest true "Plan"
// @Success 200 {object} response.Envelope
// @Router /exam-plan [put]
func (h *ExamPlanHandler) Save(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.SaveExamPlanRequest
	if !bindJSON(c, &req, "invalid exam plan payload") {
		return
	}
	view, err := h.service.Save(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
