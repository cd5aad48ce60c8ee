package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const maxReasonLength = 200

type plannedAbsenceRepository interface {
	Merge(ctx context.Context, req models.PlannedAbsenceUpsert, now time.Time) (*models.PlannedAbsenceMergeResult, error)
	ListActive(ctx context.Context, filter models.PlannedAbsenceFilter) ([]models.PlannedAbsence, error)
	Cancel(ctx context.Context, id, cancelledBy string, now time.Time) (*models.PlannedAbsence, error)
}

// PlannedAbsenceService keeps one non-overlapping set of announced absences
// per student.
type PlannedAbsenceService struct {
	repo      plannedAbsenceRepository
	cache     cacheInvalidator
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlannedAbsenceService constructs the service.
func NewPlannedAbsenceService(repo plannedAbsenceRepository, cache cacheInvalidator, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *PlannedAbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlannedAbsenceService{repo: repo, cache: cache, audit: audit, validator: validate, logger: logger, now: time.Now}
}

// CreatePlannedAbsenceRequest announces an absence interval.
type CreatePlannedAbsenceRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	FromDate  string `json:"fromDate" validate:"required"`
	ToDate    string `json:"toDate" validate:"required"`
	Reason    string `json:"reason" validate:"required,max=200"`
}

// PlannedAbsenceQuery filters the active listing.
type PlannedAbsenceQuery struct {
	Region      string `form:"region"`
	BatchNumber string `form:"batchNumber"`
	StudentID   string `form:"studentId"`
	Date        string `form:"date"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
}

// Create records the interval, merging it with any overlapping active range
// of the same student.
func (s *PlannedAbsenceService) Create(ctx context.Context, actor models.Principal, req CreatePlannedAbsenceRequest) (*models.PlannedAbsenceMergeResult, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	from, to, err := parseDateRange("fromDate", req.FromDate, "toDate", req.ToDate)
	if err != nil {
		return nil, err
	}

	result, err := s.repo.Merge(ctx, models.PlannedAbsenceUpsert{
		StudentID:     req.StudentID,
		FromDate:      from,
		ToDate:        to,
		Reason:        truncate(req.Reason, maxReasonLength),
		CreatedBy:     actor.ID,
		CreatedByName: actor.Name,
	}, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to save planned absence")
	}

	if result.AttendanceNotesUpdated > 0 && s.cache != nil {
		if err := s.cache.Invalidate(ctx, AttendanceCachePattern); err != nil {
			s.logger.Warn("attendance cache invalidation failed", zap.Error(err))
		}
	}

	action := models.AuditActionPlannedAbsenceCreate
	if result.Merged {
		action = models.AuditActionPlannedAbsenceMerge
	}
	entry := principalEntry(actor, action, "planned_absence", result.PlannedAbsence.ID)
	entry.After = result.PlannedAbsence
	entry.Meta = map[string]interface{}{
		"studentId":              req.StudentID,
		"requestedFrom":          from,
		"requestedTo":            to,
		"absorbedIds":            result.AbsorbedIDs,
		"attendanceNotesUpdated": result.AttendanceNotesUpdated,
	}
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
	return result, nil
}

// List returns active ranges covering a day or overlapping a period.
func (s *PlannedAbsenceService) List(ctx context.Context, query PlannedAbsenceQuery) ([]models.PlannedAbsence, error) {
	filter := models.PlannedAbsenceFilter{
		Region:      strings.TrimSpace(query.Region),
		BatchNumber: strings.TrimSpace(query.BatchNumber),
		StudentID:   strings.TrimSpace(query.StudentID),
	}
	switch {
	case query.Date != "":
		date, err := parseDateField("date", query.Date)
		if err != nil {
			return nil, err
		}
		filter.Date = date
	case query.StartDate != "" || query.EndDate != "":
		if query.StartDate == "" || query.EndDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required together")
		}
		start, end, err := parseDateRange("startDate", query.StartDate, "endDate", query.EndDate)
		if err != nil {
			return nil, err
		}
		filter.StartDate, filter.EndDate = start, end
	}

	absences, err := s.repo.ListActive(ctx, filter)
	if err != nil {
		return nil, internalError(err, "failed to list planned absences")
	}
	if absences == nil {
		absences = []models.PlannedAbsence{}
	}
	return absences, nil
}

// Cancel ends an active range. Cancelled ranges stay cancelled.
func (s *PlannedAbsenceService) Cancel(ctx context.Context, actor models.Principal, id string) (*models.PlannedAbsence, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	absence, err := s.repo.Cancel(ctx, id, actor.ID, s.now().UTC())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "active planned absence not found")
		}
		return nil, internalError(err, "failed to cancel planned absence")
	}
	entry := principalEntry(actor, models.AuditActionPlannedAbsenceCancel, "planned_absence", absence.ID)
	entry.After = absence
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
	return absence, nil
}
