package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

const topScorersLimit = 3

type marksRepository interface {
	MarkIfOwner(ctx context.Context, mark *models.Mark) (bool, *models.Mark, error)
	ListByScope(ctx context.Context, scope models.MarksScope) ([]models.Mark, error)
	LatestDate(ctx context.Context, scope models.MarksScope, component models.ExamComponent) (string, error)
	Top(ctx context.Context, scope models.MarksScope, limit int) ([]models.TopScorer, error)
}

type examAttendanceRepository interface {
	MarkIfOwner(ctx context.Context, record *models.ExamAttendance) (bool, *models.ExamAttendance, error)
	ListByBatchDate(ctx context.Context, region, batchNumber, date string) ([]models.ExamAttendance, error)
}

type scoredPresentationReader interface {
	ListScored(ctx context.Context, scope models.MarksScope) ([]models.Presentation, error)
	LatestScoredDate(ctx context.Context, scope models.MarksScope) (string, error)
}

// MarksService records exam scores and exam attendance.
type MarksService struct {
	repo          marksRepository
	exams         examAttendanceRepository
	presentations scoredPresentationReader
	students      studentLookup
	audit         AuditRecorder
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewMarksService constructs the marks service.
func NewMarksService(repo marksRepository, exams examAttendanceRepository, presentations scoredPresentationReader, students studentLookup, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators(validate)
	return &MarksService{
		repo:          repo,
		exams:         exams,
		presentations: presentations,
		students:      students,
		audit:         audit,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
	}
}

// MarksRecordInput is one student's sheet. Nil components are ungraded.
type MarksRecordInput struct {
	StudentID    string   `json:"studentId" validate:"required"`
	Theory       *float64 `json:"theory"`
	Practical    *float64 `json:"practical"`
	Presentation *float64 `json:"presentation"`
}

// MarkMarksRequest is the payload of POST /marks/mark. Date defaults to today.
type MarkMarksRequest struct {
	Date         string             `json:"date"`
	MarksRecords []MarksRecordInput `json:"marksRecords" validate:"required,min=1,dive"`
}

// MarksByBatchRequest selects the marks sheet of a batch.
type MarksByBatchRequest struct {
	Region      string `form:"region" validate:"required"`
	Date        string `form:"date" validate:"required"`
	BatchNumber string `form:"batchNumber"`
}

// MissedExamRequest is the missed exam query string.
type MissedExamRequest struct {
	Region           string `form:"region" validate:"required"`
	BatchNumber      string `form:"batchNumber"`
	Mode             string `form:"mode"`
	Date             string `form:"date"`
	TheoryDate       string `form:"theoryDate"`
	PracticalDate    string `form:"practicalDate"`
	PresentationDate string `form:"presentationDate"`
	StartDate        string `form:"startDate"`
	EndDate          string `form:"endDate"`
}

// TopMarksRequest selects the leaderboard of a date.
type TopMarksRequest struct {
	Date        string `form:"date" validate:"required"`
	Region      string `form:"region"`
	BatchNumber string `form:"batchNumber"`
}

// ExamAttendanceInput marks one student as present at an exam or not.
type ExamAttendanceInput struct {
	StudentID string `json:"studentId" validate:"required"`
	Appeared  bool   `json:"appeared"`
}

// MarkExamAttendanceRequest is the payload of POST /marks/exam-attendance/mark.
type MarkExamAttendanceRequest struct {
	Date    string                `json:"date" validate:"required"`
	Records []ExamAttendanceInput `json:"records" validate:"required,min=1,dive"`
}

// ExamAttendanceByBatchRequest selects exam attendance of a batch.
type ExamAttendanceByBatchRequest struct {
	Region      string `form:"region" validate:"required"`
	BatchNumber string `form:"batchNumber" validate:"required"`
	Date        string `form:"date" validate:"required"`
}

// Mark stores each sheet unless another marker owns it.
func (s *MarksService) Mark(ctx context.Context, actor models.Principal, req MarkMarksRequest) (*models.MarkMarksResult, error) {
	for i := range req.MarksRecords {
		req.MarksRecords[i].StudentID = strings.TrimSpace(req.MarksRecords[i].StudentID)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date := formatDate(s.now().UTC())
	if strings.TrimSpace(req.Date) != "" {
		var err error
		if date, err = parseDateField("date", req.Date); err != nil {
			return nil, err
		}
	}

	byID, err := s.lookupStudents(ctx, len(req.MarksRecords), func(i int) string { return req.MarksRecords[i].StudentID })
	if err != nil {
		return nil, err
	}

	result := &models.MarkMarksResult{}
	markedAt := s.now().UTC()
	for _, item := range req.MarksRecords {
		student, ok := byID[item.StudentID]
		if !ok {
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrNotFound, "student not found"))
			continue
		}
		if msg := validateMarkComponents(item); msg != "" {
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrValidation, msg))
			continue
		}
		obtained := valueOrZero(item.Theory) + valueOrZero(item.Practical) + valueOrZero(item.Presentation)
		mark := &models.Mark{
			StudentID:     student.ID,
			StudentName:   student.Name,
			Region:        student.Region,
			SchoolName:    student.SchoolName,
			BatchNumber:   student.BatchNumber,
			Date:          date,
			Theory:        item.Theory,
			Practical:     item.Practical,
			Presentation:  item.Presentation,
			TotalMarks:    models.TotalMarks,
			TotalObtained: obtained,
			Percentage:    roundTo2(obtained / models.TotalMarks * 100),
			MarkedBy:      actor.ID,
			MarkedByName:  actor.Name,
			MarkedAt:      markedAt,
		}
		written, existing, err := s.repo.MarkIfOwner(ctx, mark)
		switch {
		case err != nil && database.IsUniqueViolation(err):
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrDuplicateKey, "marks already recorded for this date"))
		case err != nil:
			s.logger.Error("marks save failed", zap.String("student_id", item.StudentID), zap.String("date", date), zap.Error(err))
			result.Failures = append(result.Failures, models.ItemFailure{StudentID: item.StudentID, Code: "SERVER_ERROR", Message: "failed to save marks"})
		case written:
			result.Results.Successful++
		default:
			result.Conflicts = append(result.Conflicts, markConflict(student, existing.MarkedByName, existing.Date))
		}
	}
	result.Results.Errors = len(result.Failures) + len(result.Conflicts)
	if len(result.Conflicts) > 0 {
		result.Warning = fmt.Sprintf("%d student(s) already marked by another teacher", len(result.Conflicts))
	}
	s.recordOutcome("marks", result.Results.Successful, len(result.Conflicts), len(result.Failures))

	entry := principalEntry(actor, models.AuditActionMarksSave, "marks", "")
	entry.Meta = map[string]interface{}{
		"date":       date,
		"total":      len(req.MarksRecords),
		"successful": result.Results.Successful,
		"errors":     result.Results.Errors,
		"conflicts":  len(result.Conflicts),
	}
	s.recordAudit(ctx, entry)
	return result, nil
}

// ByBatch returns the active roster with stored sheets and a presentation
// prefill taken from the presentations of the same day.
func (s *MarksService) ByBatch(ctx context.Context, req MarksByBatchRequest) ([]models.BatchStudentMarks, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: "active"})
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	rows := make([]models.BatchStudentMarks, 0, len(students))
	if len(students) == 0 {
		return rows, nil
	}
	snap, err := s.snapshot(ctx, models.MarksScope{Region: req.Region, BatchNumber: req.BatchNumber, StartDate: date, EndDate: date})
	if err != nil {
		return nil, internalError(err, "failed to load marks")
	}
	marks := make(map[string]*models.Mark, len(snap.marks))
	for i := range snap.marks {
		marks[snap.marks[i].StudentID] = &snap.marks[i]
	}
	prefill := make(map[string]float64, len(snap.presentations))
	for _, p := range snap.presentations {
		switch {
		case p.PresentationMarks != nil:
			prefill[p.StudentID] = *p.PresentationMarks
		case p.Evaluation().HasScore():
			prefill[p.StudentID] = p.Evaluation().Total()
		}
	}
	for _, st := range students {
		row := models.BatchStudentMarks{
			StudentID:   st.ID,
			Name:        st.Name,
			SchoolName:  st.SchoolName,
			Standard:    st.Standard,
			BatchNumber: st.BatchNumber,
			Marks:       marks[st.ID],
		}
		if v, ok := prefill[st.ID]; ok {
			row.PresentationPrefill = &v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Missed lists active students that have no score for at least one
// component on the dates selected by the mode.
func (s *MarksService) Missed(ctx context.Context, req MissedExamRequest) (*models.MissedExamReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	mode := models.MissedExamMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	if mode == "" {
		mode = models.MissedModeSingle
	}
	if !mode.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "mode must be one of single, plan, range, latest")
	}
	scope := models.MarksScope{Region: req.Region, BatchNumber: req.BatchNumber}
	report := &models.MissedExamReport{Mode: mode, Students: []models.MissedExamStudent{}}

	// component dates; empty means the component was never scored
	var theoryDate, practicalDate, presentationDate string
	switch mode {
	case models.MissedModeSingle:
		if req.Date == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
		}
		date, err := parseDateField("date", req.Date)
		if err != nil {
			return nil, err
		}
		theoryDate, practicalDate, presentationDate = date, date, date
		report.UsedDates.SingleDate = &date
	case models.MissedModePlan:
		if req.TheoryDate == "" || req.PracticalDate == "" || req.PresentationDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "theoryDate, practicalDate and presentationDate are required")
		}
		var err error
		if theoryDate, err = parseDateField("theoryDate", req.TheoryDate); err != nil {
			return nil, err
		}
		if practicalDate, err = parseDateField("practicalDate", req.PracticalDate); err != nil {
			return nil, err
		}
		if presentationDate, err = parseDateField("presentationDate", req.PresentationDate); err != nil {
			return nil, err
		}
		report.UsedDates.TheoryDate, report.UsedDates.PracticalDate, report.UsedDates.PresentationDate = &theoryDate, &practicalDate, &presentationDate
	case models.MissedModeRange:
		if req.StartDate == "" || req.EndDate == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "startDate and endDate are required")
		}
		start, end, err := parseDateRange("startDate", req.StartDate, "endDate", req.EndDate)
		if err != nil {
			return nil, err
		}
		report.UsedDates.StartDate, report.UsedDates.EndDate = &start, &end
		scope.StartDate, scope.EndDate = start, end
	case models.MissedModeLatest:
		var err error
		if theoryDate, practicalDate, presentationDate, err = s.latestDates(ctx, scope); err != nil {
			return nil, internalError(err, "failed to resolve latest exam dates")
		}
		report.UsedDates.TheoryDate = optionalString(theoryDate)
		report.UsedDates.PracticalDate = optionalString(practicalDate)
		report.UsedDates.PresentationDate = optionalString(presentationDate)
	}

	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: "active"})
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	if len(students) == 0 {
		return report, nil
	}

	var scored map[string]*models.MissedComponents
	if mode == models.MissedModeRange {
		snap, err := s.snapshot(ctx, scope)
		if err != nil {
			return nil, internalError(err, "failed to load marks")
		}
		scored = snap.scoredComponents(true, true, true)
	} else {
		scored, err = s.scoredOnDates(ctx, scope, theoryDate, practicalDate, presentationDate)
		if err != nil {
			return nil, internalError(err, "failed to load marks")
		}
	}

	for _, st := range students {
		has := scored[st.ID]
		if has == nil {
			has = &models.MissedComponents{}
		}
		missed := models.MissedComponents{Theory: !has.Theory, Practical: !has.Practical, Presentation: !has.Presentation}
		if missed.Any() {
			report.Students = append(report.Students, models.MissedExamStudent{StudentID: st.ID, Name: st.Name, BatchNumber: st.BatchNumber, Missed: missed})
		}
	}
	return report, nil
}

// Top returns the three best sheets of a date.
func (s *MarksService) Top(ctx context.Context, req TopMarksRequest) ([]models.TopScorer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.Top(ctx, models.MarksScope{Region: req.Region, BatchNumber: req.BatchNumber, StartDate: date, EndDate: date}, topScorersLimit)
	if err != nil {
		return nil, internalError(err, "failed to load top scorers")
	}
	if top == nil {
		top = []models.TopScorer{}
	}
	return top, nil
}

// MarkExamAttendance records whether students sat the exam of a date.
func (s *MarksService) MarkExamAttendance(ctx context.Context, actor models.Principal, req MarkExamAttendanceRequest) (*models.ExamAttendanceResult, error) {
	for i := range req.Records {
		req.Records[i].StudentID = strings.TrimSpace(req.Records[i].StudentID)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	byID, err := s.lookupStudents(ctx, len(req.Records), func(i int) string { return req.Records[i].StudentID })
	if err != nil {
		return nil, err
	}

	result := &models.ExamAttendanceResult{}
	markedAt := s.now().UTC()
	for _, item := range req.Records {
		student, ok := byID[item.StudentID]
		if !ok {
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrNotFound, "student not found"))
			continue
		}
		record := &models.ExamAttendance{
			StudentID:    student.ID,
			StudentName:  student.Name,
			Region:       student.Region,
			SchoolName:   student.SchoolName,
			BatchNumber:  student.BatchNumber,
			Date:         date,
			Appeared:     item.Appeared,
			MarkedBy:     actor.ID,
			MarkedByName: actor.Name,
			MarkedAt:     markedAt,
		}
		written, existing, err := s.exams.MarkIfOwner(ctx, record)
		switch {
		case err != nil && database.IsUniqueViolation(err):
			result.Failures = append(result.Failures, itemFailure(item.StudentID, appErrors.ErrDuplicateKey, "exam attendance already recorded for this date"))
		case err != nil:
			s.logger.Error("exam attendance save failed", zap.String("student_id", item.StudentID), zap.Error(err))
			result.Failures = append(result.Failures, models.ItemFailure{StudentID: item.StudentID, Code: "SERVER_ERROR", Message: "failed to save exam attendance"})
		case written:
			result.Results.Successful++
		default:
			result.Conflicts = append(result.Conflicts, markConflict(student, existing.MarkedByName, existing.Date))
		}
	}
	result.Results.Errors = len(result.Failures) + len(result.Conflicts)
	s.recordOutcome("exam_attendance", result.Results.Successful, len(result.Conflicts), len(result.Failures))

	entry := principalEntry(actor, models.AuditActionExamAttendanceSave, "exam_attendance", "")
	entry.Meta = map[string]interface{}{"date": date, "total": len(req.Records), "successful": result.Results.Successful, "errors": result.Results.Errors}
	s.recordAudit(ctx, entry)
	return result, nil
}

// ExamAttendanceByBatch returns the active roster with recorded attendance.
func (s *MarksService) ExamAttendanceByBatch(ctx context.Context, req ExamAttendanceByBatchRequest) ([]models.BatchExamAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return nil, err
	}
	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: "active"})
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	rows := make([]models.BatchExamAttendance, 0, len(students))
	if len(students) == 0 {
		return rows, nil
	}
	records, err := s.exams.ListByBatchDate(ctx, req.Region, req.BatchNumber, date)
	if err != nil {
		return nil, internalError(err, "failed to load exam attendance")
	}
	byStudent := make(map[string]models.ExamAttendance, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r
	}
	for _, st := range students {
		row := models.BatchExamAttendance{StudentID: st.ID, Name: st.Name, BatchNumber: st.BatchNumber}
		if rec, ok := byStudent[st.ID]; ok {
			appeared, by, at := rec.Appeared, rec.MarkedByName, rec.MarkedAt
			row.Appeared, row.MarkedBy, row.MarkedAt = &appeared, &by, &at
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type examSnapshot struct {
	marks         []models.Mark
	presentations []models.Presentation
}

// scoredComponents flags, per student, the selected components that carry a
// score anywhere in the snapshot.
func (e examSnapshot) scoredComponents(theory, practical, presentation bool) map[string]*models.MissedComponents {
	out := make(map[string]*models.MissedComponents)
	get := func(id string) *models.MissedComponents {
		if out[id] == nil {
			out[id] = &models.MissedComponents{}
		}
		return out[id]
	}
	for _, m := range e.marks {
		c := get(m.StudentID)
		c.Theory = c.Theory || (theory && m.Theory != nil)
		c.Practical = c.Practical || (practical && m.Practical != nil)
		c.Presentation = c.Presentation || (presentation && m.Presentation != nil)
	}
	if presentation {
		for _, p := range e.presentations {
			get(p.StudentID).Presentation = true
		}
	}
	return out
}

func (s *MarksService) snapshot(ctx context.Context, scope models.MarksScope) (examSnapshot, error) {
	var snap examSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.marks, err = s.repo.ListByScope(gctx, scope)
		return err
	})
	g.Go(func() error {
		var err error
		snap.presentations, err = s.presentations.ListScored(gctx, scope)
		return err
	})
	return snap, g.Wait()
}

// scoredOnDates checks each component on its own date, fetching each
// distinct date once.
func (s *MarksService) scoredOnDates(ctx context.Context, scope models.MarksScope, theoryDate, practicalDate, presentationDate string) (map[string]*models.MissedComponents, error) {
	var dates []string
	seen := make(map[string]bool)
	for _, d := range []string{theoryDate, practicalDate, presentationDate} {
		if d != "" && !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}
	snaps := make(map[string]examSnapshot, len(dates))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, date := range dates {
		date := date
		g.Go(func() error {
			day := scope
			day.StartDate, day.EndDate = date, date
			snap, err := s.snapshot(gctx, day)
			if err != nil {
				return err
			}
			mu.Lock()
			snaps[date] = snap
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*models.MissedComponents)
	merge := func(date string, theory, practical, presentation bool) {
		if date == "" {
			return
		}
		for id, c := range snaps[date].scoredComponents(theory, practical, presentation) {
			if out[id] == nil {
				out[id] = &models.MissedComponents{}
			}
			out[id].Theory = out[id].Theory || c.Theory
			out[id].Practical = out[id].Practical || c.Practical
			out[id].Presentation = out[id].Presentation || c.Presentation
		}
	}
	merge(theoryDate, true, false, false)
	merge(practicalDate, false, true, false)
	merge(presentationDate, false, false, true)
	return out, nil
}

func (s *MarksService) latestDates(ctx context.Context, scope models.MarksScope) (string, string, string, error) {
	var theory, practical, presentationMarks, presentationScored string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		theory, err = s.repo.LatestDate(gctx, scope, models.ComponentTheory)
		return err
	})
	g.Go(func() (err error) {
		practical, err = s.repo.LatestDate(gctx, scope, models.ComponentPractical)
		return err
	})
	g.Go(func() (err error) {
		presentationMarks, err = s.repo.LatestDate(gctx, scope, models.ComponentPresentation)
		return err
	})
	g.Go(func() (err error) {
		presentationScored, err = s.presentations.LatestScoredDate(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", "", err
	}
	presentation := presentationMarks
	if presentationScored > presentation {
		presentation = presentationScored
	}
	return theory, practical, presentation, nil
}

func (s *MarksService) lookupStudents(ctx context.Context, n int, idAt func(int) string) (map[string]models.User, error) {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, idAt(i))
	}
	found, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	byID := make(map[string]models.User, len(found))
	for _, st := range found {
		if st.Role == models.RoleStudent {
			byID[st.ID] = st
		}
	}
	return byID, nil
}

func (s *MarksService) recordOutcome(kind string, written, conflicts, failures int) {
	s.metrics.RecordMarkOutcome(kind, OutcomeWritten, written)
	s.metrics.RecordMarkOutcome(kind, OutcomeConflict, conflicts)
	s.metrics.RecordMarkOutcome(kind, OutcomeError, failures)
}

func (s *MarksService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

func validateMarkComponents(item MarksRecordInput) string {
	checks := []struct {
		name  string
		value *float64
		max   float64
	}{
		{"theory", item.Theory, models.MaxTheoryMarks},
		{"practical", item.Practical, models.MaxPracticalMarks},
		{"presentation", item.Presentation, models.MaxPresentationMarks},
	}
	for _, c := range checks {
		if c.value != nil && (*c.value < 0 || *c.value > c.max) {
			return fmt.Sprintf("%s must be between 0 and %g", c.name, c.max)
		}
	}
	return ""
}

func markConflict(student models.User, markedBy, date string) models.MarkConflict {
	if markedBy == "" {
		markedBy = "Unknown"
	}
	return models.MarkConflict{StudentID: student.ID, StudentName: student.Name, MarkedBy: markedBy, Date: date}
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
