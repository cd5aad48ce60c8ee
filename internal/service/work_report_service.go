package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type workReportRepository interface {
	Upsert(ctx context.Context, report *models.WorkReport) (*models.WorkReport, error)
	List(ctx context.Context, filter models.WorkReportFilter) ([]models.WorkReport, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.WorkReport, error)
	DeleteOwned(ctx context.Context, id, teacherID string) (bool, error)
}

// SaveWorkReportRequest is the payload of POST /work-reports.
type SaveWorkReportRequest struct {
	Date            string `json:"date" validate:"required"`
	Region          string `json:"region" validate:"required"`
	BatchNumber     string `json:"batchNumber" validate:"required"`
	Subject         string `json:"subject" validate:"required,max=200"`
	TopicsCovered   string `json:"topicsCovered" validate:"required"`
	Assignment      string `json:"assignment" validate:"required"`
	AttendanceCount *int   `json:"attendanceCount" validate:"required,min=0"`
}

// WorkReportQuery filters the caller's reports.
type WorkReportQuery struct {
	Date        string `form:"date"`
	Region      string `form:"region"`
	BatchNumber string `form:"batchNumber"`
}

// WorkReportService keeps the daily teaching logs of each teacher. Every
// operation is scoped to the caller.
type WorkReportService struct {
	repo      workReportRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkReportService constructs the service.
func NewWorkReportService(repo workReportRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *WorkReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkReportService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// Save creates or replaces the caller's report for a date and batch.
func (s *WorkReportService) Save(ctx context.Context, actor models.Principal, req SaveWorkReportRequest) (*models.WorkReport, error) {
	req.Region = strings.TrimSpace(req.Region)
	req.BatchNumber = strings.TrimSpace(req.BatchNumber)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.Upsert(ctx, &models.WorkReport{
		TeacherID:       actor.ID,
		TeacherName:     actor.Name,
		Date:            date,
		Region:          req.Region,
		BatchNumber:     req.BatchNumber,
		Subject:         req.Subject,
		TopicsCovered:   strings.TrimSpace(req.TopicsCovered),
		Assignment:      strings.TrimSpace(req.Assignment),
		AttendanceCount: *req.AttendanceCount,
	})
	if err != nil {
		return nil, internalError(err, "failed to save work report")
	}
	entry := principalEntry(actor, models.AuditActionWorkReportSave, "work_report", stored.ID)
	entry.Meta = map[string]interface{}{"date": date, "region": req.Region, "batchNumber": req.BatchNumber}
	s.recordAudit(ctx, entry)
	return stored, nil
}

// List returns the caller's reports newest first.
func (s *WorkReportService) List(ctx context.Context, actor models.Principal, req WorkReportQuery) ([]models.WorkReport, error) {
	filter := models.WorkReportFilter{TeacherID: actor.ID, Region: strings.TrimSpace(req.Region), BatchNumber: strings.TrimSpace(req.BatchNumber)}
	if strings.TrimSpace(req.Date) != "" {
		date, err := parseDateField("date", req.Date)
		if err != nil {
			return nil, err
		}
		filter.Date = date
	}
	reports, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list work reports")
	}
	if reports == nil {
		reports = []models.WorkReport{}
	}
	return reports, nil
}

// Get returns one of the caller's reports.
func (s *WorkReportService) Get(ctx context.Context, actor models.Principal, id string) (*models.WorkReport, error) {
	report, err := s.repo.FindOwned(ctx, strings.TrimSpace(id), actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, internalError(err, "failed to load work report")
	}
	return report, nil
}

// Delete removes one of the caller's reports.
func (s *WorkReportService) Delete(ctx context.Context, actor models.Principal, id string) error {
	id = strings.TrimSpace(id)
	deleted, err := s.repo.DeleteOwned(ctx, id, actor.ID)
	if err != nil {
		return internalError(err, "failed to delete work report")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	s.recordAudit(ctx, principalEntry(actor, models.AuditActionWorkReportDelete, "work_report", id))
	return nil
}

func (s *WorkReportService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}
