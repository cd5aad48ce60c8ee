package dto

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// ReportRequest captures the POST /attendance/reports payload.
type ReportRequest struct {
	Type        models.ReportType `json:"type" validate:"omitempty,oneof=attendance_summary low_attendance"`
	Region      string            `json:"region" validate:"required"`
	BatchNumber string            `json:"batchNumber"`
	StartDate   string            `json:"startDate" validate:"omitempty,date_only"`
	EndDate     string            `json:"endDate" validate:"omitempty,date_only"`
	Status      string            `json:"status" validate:"omitempty,oneof=all active inactive"`
	MinAbsent   int               `json:"minAbsent" validate:"omitempty,min=1"`
	Days        int               `json:"days" validate:"omitempty,min=1,max=365"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Type     models.ReportType   `json:"type"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID         string                 `json:"id"`
	Type       models.ReportType      `json:"type"`
	Status     models.ReportStatus    `json:"status"`
	Progress   int                    `json:"progress"`
	Params     models.ReportJobParams `json:"params"`
	ResultURL  *string                `json:"resultUrl,omitempty"`
	Error      *string                `json:"error,omitempty"`
	FinishedAt *string                `json:"finishedAt,omitempty"`
}
