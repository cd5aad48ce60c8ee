package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const (
	maxNoteLength      = 200
	maxSourceLength    = 50
	recentWindowDays   = 7
	recentRecordsLimit = 5
)

type attendanceRepository interface {
	MarkIfOwner(ctx context.Context, mark models.AttendanceMark) (*models.MarkWriteResult, error)
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	ListRange(ctx context.Context, rng models.AttendanceRange) ([]models.AttendanceRecord, error)
	DeleteOwned(ctx context.Context, params models.UndoAttendanceParams) (int64, error)
}

type studentLookup interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type plannedAbsenceReader interface {
	ListActive(ctx context.Context, filter models.PlannedAbsenceFilter) ([]models.PlannedAbsence, error)
}

type contactLogRepository interface {
	Create(ctx context.Context, entry *models.ContactLog) error
	List(ctx context.Context, filter models.ContactLogFilter, limit int) ([]models.ContactLog, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// AttendanceService records daily attendance with per-pair ownership.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentLookup
	planned   plannedAbsenceReader
	contacts  contactLogRepository
	cache     cacheInvalidator
	audit     AuditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentLookup, planned plannedAbsenceReader, contacts contactLogRepository, cache cacheInvalidator, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators(validate)
	return &AttendanceService{
		repo:      repo,
		students:  students,
		planned:   planned,
		contacts:  contacts,
		cache:     cache,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// AttendanceRecordInput is one pair of a mark request. Status is validated
// per item so a bad value fails only that pair.
type AttendanceRecordInput struct {
	StudentID string `json:"studentId" validate:"required"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

// MarkAttendanceRequest is the payload of POST /attendance/mark.
type MarkAttendanceRequest struct {
	Date              string                  `json:"date" validate:"required,date_only"`
	AttendanceRecords []AttendanceRecordInput `json:"attendanceRecords" validate:"required,min=1,dive"`
}

// ByBatchRequest selects the daily roster.
type ByBatchRequest struct {
	Region      string `form:"region" validate:"required"`
	Date        string `form:"date" validate:"required"`
	BatchNumber string `form:"batchNumber"`
	Status      string `form:"status" validate:"omitempty,oneof=all active inactive"`
}

// UndoAttendanceRequest removes the caller's marks for a day.
type UndoAttendanceRequest struct {
	Region      string   `json:"region" validate:"required"`
	Date        string   `json:"date" validate:"required"`
	BatchNumber string   `json:"batchNumber"`
	StudentIDs  []string `json:"studentIds"`
}

// ContactLogRequest records a call to a student.
type ContactLogRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Phone     string `json:"phone"`
	Source    string `json:"source"`
}

// ContactLogQuery lists recent outreach for a region.
type ContactLogQuery struct {
	Region      string `form:"region" validate:"required"`
	BatchNumber string `form:"batchNumber"`
	Days        int    `form:"days"`
}

// Mark writes every pair independently. Request level problems fail the
// whole call; per pair problems are reported in the result.
func (s *AttendanceService) Mark(ctx context.Context, actor models.Principal, req MarkAttendanceRequest) (*models.MarkAttendanceResult, error) {
	for i := range req.AttendanceRecords {
		req.AttendanceRecords[i].StudentID = strings.TrimSpace(req.AttendanceRecords[i].StudentID)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(req.AttendanceRecords))
	for _, item := range req.AttendanceRecords {
		ids = append(ids, item.StudentID)
	}
	found, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	byID := make(map[string]models.User, len(found))
	for _, student := range found {
		byID[student.ID] = student
	}

	result := &models.MarkAttendanceResult{}
	touched := make(map[string]struct{})
	markedAt := s.now().UTC()
	for _, item := range req.AttendanceRecords {
		student, ok := byID[item.StudentID]
		if !ok || student.Role != models.RoleStudent {
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrNotFound, "student not found"))
			continue
		}
		status := models.AttendanceStatus(strings.ToLower(strings.TrimSpace(item.Status)))
		if !status.Valid() {
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrInvalidStatus, "status must be one of present, absent, late, leave"))
			continue
		}

		mark := models.AttendanceMark{
			Student:      student,
			Date:         date,
			Status:       status,
			Note:         normalizeNote(item.Note),
			MarkedBy:     actor.ID,
			MarkedByName: actor.Name,
			MarkedAt:     markedAt,
		}
		outcome, err := s.repo.MarkIfOwner(ctx, mark)
		switch {
		case err != nil && database.IsUniqueViolation(err):
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrDuplicateKey, "attendance already recorded for this date"))
		case err != nil:
			s.logger.Error("attendance mark failed", zap.String("student_id", item.StudentID), zap.String("date", date), zap.Error(err))
			result.Failures = append(result.Failures, models.ItemFailure{StudentID: item.StudentID, Code: "SERVER_ERROR", Message: "failed to save attendance"})
		case outcome.Written:
			result.Results.Successful++
			touched[student.Region] = struct{}{}
		default:
			conflict := models.AttendanceConflict{StudentID: student.ID, StudentName: student.Name}
			if outcome.Existing != nil {
				conflict.MarkedBy = outcome.Existing.MarkedByName
				conflict.Status = outcome.Existing.Status
			}
			result.Conflicts = append(result.Conflicts, conflict)
		}
	}
	result.Results.Errors = len(result.Failures) + len(result.Conflicts)
	if len(result.Conflicts) > 0 {
		result.Warning = "some students were already marked by another teacher"
	}

	s.metrics.RecordMarkOutcome("attendance", OutcomeWritten, result.Results.Successful)
	s.metrics.RecordMarkOutcome("attendance", OutcomeConflict, len(result.Conflicts))
	s.metrics.RecordMarkOutcome("attendance", OutcomeError, len(result.Failures))

	s.invalidate(ctx, touched)
	entry := principalEntry(actor, models.AuditActionAttendanceMark, "attendance", "")
	entry.Meta = map[string]interface{}{
		"date":       date,
		"total":      len(req.AttendanceRecords),
		"successful": result.Results.Successful,
		"errors":     result.Results.Errors,
		"conflicts":  len(result.Conflicts),
	}
	s.recordAudit(ctx, entry)
	return result, nil
}

// ByBatch returns the roster of a batch for a day with recent context.
func (s *AttendanceService) ByBatch(ctx context.Context, req ByBatchRequest) ([]models.BatchStudentAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = "all"
	}
	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: status})
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	rows := make([]models.BatchStudentAttendance, 0, len(students))
	if len(students) == 0 {
		return rows, nil
	}
	ids := make([]string, 0, len(students))
	for _, student := range students {
		ids = append(ids, student.ID)
	}

	var (
		records []models.AttendanceRecord
		planned []models.PlannedAbsence
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.repo.ListRange(gctx, models.AttendanceRange{
			StudentIDs: ids,
			StartDate:  addDays(date, -recentWindowDays),
			EndDate:    date,
		})
		return err
	})
	g.Go(func() error {
		var err error
		planned, err = s.planned.ListActive(gctx, models.PlannedAbsenceFilter{Region: req.Region, BatchNumber: req.BatchNumber, Date: date})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "failed to load attendance")
	}

	prevDate := addDays(date, -1)
	prev2Date := addDays(date, -2)
	current := make(map[string]*models.AttendanceRecord)
	previous := make(map[string]models.AttendanceStatus)
	previous2 := make(map[string]models.AttendanceStatus)
	recent := make(map[string][]models.RecentAttendance)
	// records arrive newest first
	for i := range records {
		rec := &records[i]
		switch rec.Date {
		case date:
			current[rec.StudentID] = rec
		case prevDate:
			previous[rec.StudentID] = rec.Status
		case prev2Date:
			previous2[rec.StudentID] = rec.Status
		}
		if len(recent[rec.StudentID]) < recentRecordsLimit {
			recent[rec.StudentID] = append(recent[rec.StudentID], models.RecentAttendance{Date: rec.Date, Status: rec.Status, Note: rec.Note})
		}
	}
	plannedByStudent := make(map[string]*models.PlannedAbsence, len(planned))
	for i := range planned {
		plannedByStudent[planned[i].StudentID] = &planned[i]
	}

	for _, student := range students {
		row := models.BatchStudentAttendance{
			StudentID:        student.ID,
			Name:             student.Name,
			SchoolName:       student.SchoolName,
			BatchNumber:      student.BatchNumber,
			Mobile:           student.Mobile,
			Standard:         student.Standard,
			IsActive:         student.IsActive,
			Attendance:       current[student.ID],
			PlannedAbsence:   plannedByStudent[student.ID],
			RecentAttendance: recent[student.ID],
		}
		if st, ok := previous[student.ID]; ok {
			row.PreviousDay = &st
		}
		if st, ok := previous2[student.ID]; ok {
			row.PreviousTwoDays = &st
		}
		if row.RecentAttendance == nil {
			row.RecentAttendance = []models.RecentAttendance{}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Undo deletes only the marks the caller owns for the region and date.
func (s *AttendanceService) Undo(ctx context.Context, actor models.Principal, req UndoAttendanceRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return 0, err
	}
	deleted, err := s.repo.DeleteOwned(ctx, models.UndoAttendanceParams{
		Region:      req.Region,
		BatchNumber: req.BatchNumber,
		Date:        date,
		StudentIDs:  req.StudentIDs,
		MarkedBy:    actor.ID,
	})
	if err != nil {
		return 0, internalError(err, "failed to undo attendance")
	}
	if deleted > 0 {
		s.invalidate(ctx, map[string]struct{}{req.Region: {}})
	}
	batch := req.BatchNumber
	if batch == "" {
		batch = "all"
	}
	entry := principalEntry(actor, models.AuditActionAttendanceUndo, "attendance", "")
	entry.Meta = map[string]interface{}{"region": req.Region, "batchNumber": batch, "date": date, "deleted": deleted}
	s.recordAudit(ctx, entry)
	return deleted, nil
}

// History returns a record with its superseded marks.
func (s *AttendanceService) History(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, internalError(err, "failed to load attendance")
	}
	if record.History == nil {
		record.History = models.AttendanceHistory{}
	}
	return record, nil
}

// LogContact stores a teacher's outreach to a student.
func (s *AttendanceService) LogContact(ctx context.Context, actor models.Principal, req ContactLogRequest) (*models.ContactLog, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	source := truncate(strings.TrimSpace(req.Source), maxSourceLength)
	if source == "" {
		source = "unknown"
	}
	entry := &models.ContactLog{
		StudentID:     student.ID,
		StudentName:   student.Name,
		StudentMobile: student.Mobile,
		TeacherID:     actor.ID,
		TeacherName:   actor.Name,
		Region:        student.Region,
		SchoolName:    student.SchoolName,
		BatchNumber:   student.BatchNumber,
		Standard:      student.Standard,
		PhoneDialed:   strings.TrimSpace(req.Phone),
		Source:        source,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.contacts.Create(ctx, entry); err != nil {
		return nil, internalError(err, "failed to save contact log")
	}
	audit := principalEntry(actor, models.AuditActionStudentContact, "contact_log", entry.ID)
	audit.Meta = map[string]interface{}{"studentId": student.ID, "teacherId": actor.ID, "source": source}
	s.recordAudit(ctx, audit)
	return entry, nil
}

// ListContacts returns outreach of the last days for a region, newest first.
func (s *AttendanceService) ListContacts(ctx context.Context, query ContactLogQuery) (*models.ContactLogReport, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err)
	}
	days := query.Days
	if days <= 0 {
		days = 30
	}
	end := s.now().UTC()
	start := end.AddDate(0, 0, -(days - 1))
	logs, err := s.contacts.List(ctx, models.ContactLogFilter{
		Region:      query.Region,
		BatchNumber: query.BatchNumber,
		Since:       time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
	}, 0)
	if err != nil {
		return nil, internalError(err, "failed to list contact logs")
	}
	if logs == nil {
		logs = []models.ContactLog{}
	}
	return &models.ContactLogReport{
		Days:      days,
		DateRange: models.DateRange{Start: formatDate(start), End: formatDate(end)},
		Results:   logs,
	}, nil
}

// invalidate drops the cached rollups of each region that saw a write.
func (s *AttendanceService) invalidate(ctx context.Context, regions map[string]struct{}) {
	if s.cache == nil {
		return
	}
	for region := range regions {
		if err := s.cache.Invalidate(ctx, RegionCachePattern(region)); err != nil {
			s.logger.Warn("attendance cache invalidation failed", zap.String("region", region), zap.Error(err))
		}
	}
}

func (s *AttendanceService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

func normalizeNote(note string) *string {
	note = truncate(strings.TrimSpace(note), maxNoteLength)
	if note == "" {
		return nil
	}
	return &note
}

func itemFailure(studentID string, kind *appErrors.Error, message string) models.ItemFailure {
	return models.ItemFailure{StudentID: studentID, Code: kind.Code, Message: message}
}
