package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type attendanceService interface {
	Mark(ctx context.Context, actor models.Principal, req service.MarkAttendanceRequest) (*models.MarkAttendanceResult, error)
	ByBatch(ctx context.Context, req service.ByBatchRequest) ([]models.BatchStudentAttendance, error)
	Undo(ctx context.Context, actor models.Principal, req service.UndoAttendanceRequest) (int64, error)
	History(ctx context.Context, id string) (*models.AttendanceRecord, error)
	LogContact(ctx context.Context, actor models.Principal, req service.ContactLogRequest) (*models.ContactLog, error)
	ListContacts(ctx context.Context, query service.ContactLogQuery) (*models.ContactLogReport, error)
}

type summaryService interface {
	Summary(ctx context.Context, req service.SummaryRequest) (*models.AttendanceSummary, bool, error)
	LowAttendance(ctx context.Context, req service.LowAttendanceRequest) (*models.LowAttendanceReport, bool, error)
	Engagement(ctx context.Context, req service.EngagementRequest) (*models.EngagementReport, bool, error)
}

// AttendanceHandler exposes daily attendance endpoints.
type AttendanceHandler struct {
	attendance attendanceService
	summary    summaryService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance attendanceService, summary summaryService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, summary: summary}
}

// Mark godoc
// @Summary Mark attendance for a day
// @Description Upserts one record per student. Records owned by another teacher are reported as conflicts and left untouched.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance batch"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/mark [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req, "invalid attendance payload") {
		return
	}
	result, err := h.attendance.Mark(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ByBatch godoc
// @Summary Batch roster with the day's attendance
// @Tags Attendance
// @Produce json
// @Param region query string true "Region"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param batchNumber query string false "Batch number"
// @Param status query string false "all, active or inactive"
// @Success 200 {object} response.Envelope
// @Router /attendance/by-batch [get]
func (h *AttendanceHandler) ByBatch(c *gin.Context) {
	var req service.ByBatchRequest
	if !bindQuery(c, &req) {
		return
	}
	rows, err := h.attendance.ByBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Undo godoc
// @Summary Delete the caller's marks for a day
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.UndoAttendanceRequest true "Undo scope"
// @Success 200 {object} response.Envelope
// @Router /attendance/undo [post]
func (h *AttendanceHandler) Undo(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.UndoAttendanceRequest
	if !bindJSON(c, &req, "invalid undo payload") {
		return
	}
	deleted, err := h.attendance.Undo(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

// History godoc
// @Summary Attendance record with its change history
// @Tags Attendance
// @Produce json
// @Param id path string true "Attendance ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance/{id}/history [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	record, err := h.attendance.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// LogContact godoc
// @Summary Record outreach to a student
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.ContactLogRequest true "Contact"
// @Success 201 {object} response.Envelope
// @Router /attendance/contact-log [post]
func (h *AttendanceHandler) LogContact(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.ContactLogRequest
	if !bindJSON(c, &req, "invalid contact payload") {
		return
	}
	entry, err := h.attendance.LogContact(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// ListContacts godoc
// @Summary Recent outreach per region
// @Tags Attendance
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string false "Batch number"
// @Param days query int false "Look-back window in days"
// @Success 200 {object} response.Envelope
// @Router /attendance/contact-log [get]
func (h *AttendanceHandler) ListContacts(c *gin.Context) {
	var query service.ContactLogQuery
	if !bindQuery(c, &query) {
		return
	}
	report, err := h.attendance.ListContacts(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Summary godoc
// @Summary Attendance summary for a batch and period
// @Tags Attendance
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string true "Batch number"
// @Param startDate query string true "Start date"
// @Param endDate query string true "End date"
// @Param status query string false "all, active or inactive"
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *AttendanceHandler) Summary(c *gin.Context) {
	var req service.SummaryRequest
	if !bindQuery(c, &req) {
		return
	}
	summary, cached, err := h.summary.Summary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, summary, cached)
}

// LowAttendance godoc
// @Summary Students with repeated absences
// @Tags Attendance
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string false "Batch number"
// @Param minAbsent query int false "Minimum absences (default 3)"
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Router /attendance/low-attendance [get]
func (h *AttendanceHandler) LowAttendance(c *gin.Context) {
	var req service.LowAttendanceRequest
	if !bindQuery(c, &req) {
		return
	}
	report, cached, err := h.summary.LowAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, report, cached)
}

// Engagement godoc
// @Summary Attendance leaders and most improved students
// @Tags Attendance
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string false "Batch number"
// @Param days query int false "Window in days (min 7)"
// @Success 200 {object} response.Envelope
// @Router /attendance/engagement [get]
func (h *AttendanceHandler) Engagement(c *gin.Context) {
	var req service.EngagementRequest
	if !bindQuery(c, &req) {
		return
	}
	report, cached, err := h.summary.Engagement(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	cachedJSON(c, report, cached)
}
