package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type marksService interface {
	Mark(ctx context.Context, actor models.Principal, req service.MarkMarksRequest) (*models.MarkMarksResult, error)
	ByBatch(ctx context.Context, req service.MarksByBatchRequest) ([]models.BatchStudentMarks, error)
	Missed(ctx context.Context, req service.MissedExamRequest) (*models.MissedExamReport, error)
	Top(ctx context.Context, req service.TopMarksRequest) ([]models.TopScorer, error)
	MarkExamAttendance(ctx context.Context, actor models.Principal, req service.MarkExamAttendanceRequest) (*models.ExamAttendanceResult, error)
	ExamAttendanceByBatch(ctx context.Context, req service.ExamAttendanceByBatchRequest) ([]models.BatchExamAttendance, error)
}

// MarksHandler exposes exam marks endpoints.
type MarksHandler struct {
	service marksService
}

// NewMarksHandler constructs MarksHandler.
func NewMarksHandler(svc marksService) *MarksHandler {
	return &MarksHandler{service: svc}
}

// Mark godoc
// @Summary Record exam marks
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.MarkMarksRequest true "Marks batch"
// @Success 200 {object} response.Envelope
// @Router /marks/mark [post]
func (h *MarksHandler) Mark(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.MarkMarksRequest
	if !bindJSON(c, &req, "invalid marks payload") {
		return
	}
	result, err := h.service.Mark(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ByBatch godoc
// @Summary Marks of a batch on a date
// @Tags Marks
// @Produce json
// @Param region query string true "Region"
// @Param date query string true "Date"
// @Param batchNumber query string false "Batch number"
// @Success 200 {object} response.Envelope
// @Router /marks/by-batch [get]
func (h *MarksHandler) ByBatch(c *gin.Context) {
	var req service.MarksByBatchRequest
	if !bindQuery(c, &req) {
		return
	}
	rows, err := h.service.ByBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Missed godoc
// @Summary Students without a score for an exam
// @Tags Marks
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string false "Batch number"
// @Param mode query string false "single, plan, range or latest"
// @Param date query string false "Exam date for single mode"
// @Param startDate query string false "Range start"
// @Param endDate query string false "Range end"
// @Success 200 {object} response.Envelope
// @Router /marks/missed [get]
func (h *MarksHandler) Missed(c *gin.Context) {
	var req service.MissedExamRequest
	if !bindQuery(c, &req) {
		return
	}
	report, err := h.service.Missed(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Top godoc
// @Summary Top three scorers of a date
// @Tags Marks
// @Produce json
// @Param date query string true "Date"
// @Param region query string false "Region"
// @Param batchNumber query string false "Batch number"
// @Success 200 {object} response.Envelope
// @Router /marks/top [get]
func (h *MarksHandler) Top(c *gin.Context) {
	var req service.TopMarksRequest
	if !bindQuery(c, &req) {
		return
	}
	top, err := h.service.Top(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, top, nil)
}

// MarkExamAttendance godoc
// @Summary Record exam appearance
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.MarkExamAttendanceRequest true "Exam attendance"
// @Success 200 {object} response.Envelope
// @Router /marks/exam-attendance/mark [post]
func (h *MarksHandler) MarkExamAttendance(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.MarkExamAttendanceRequest
	if !bindJSON(c, &req, "invalid exam attendance payload") {
		return
	}
	result, err := h.service.MarkExamAttendance(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ExamAttendanceByBatch godoc
// @Summary Exam appearance of a batch
// @Tags Marks
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string true "Batch number"
// @Param date query string true "Date"
// @Success 200 {object} response.Envelope
// @Router /marks/exam-attendance/by-batch [get]
func (h *MarksHandler) ExamAttendanceByBatch(c *gin.Context) {
	var req service.ExamAttendanceByBatchRequest
	if !bindQuery(c, &req) {
		return
	}
	rows, err := h.service.ExamAttendanceByBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}
