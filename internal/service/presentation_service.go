package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type presentationRepository interface {
	ListByScope(ctx context.Context, scope models.PresentationScope) ([]models.Presentation, error)
	AssignIfOwner(ctx context.Context, p *models.Presentation) (bool, *models.Presentation, error)
	EvaluateIfOwner(ctx context.Context, studentID, date, markedBy string, eval models.Evaluation, marks *float64, now time.Time) (bool, *models.Presentation, error)
	SetLocked(ctx context.Context, date string, studentIDs []string, locked bool) (int64, error)
	UpdateTopic(ctx context.Context, scope models.PresentationScope, groupNumber int, topic, markedBy string) (int64, error)
	DeleteOwned(ctx context.Context, date string, studentIDs []string, markedBy string) (int64, error)
}

// PresentationService groups students for presentations and scores them.
type PresentationService struct {
	repo      presentationRepository
	students  studentLookup
	audit     AuditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPresentationService constructs the service.
func NewPresentationService(repo presentationRepository, students studentLookup, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PresentationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerValidators(validate)
	return &PresentationService{repo: repo, students: students, audit: audit, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// PresentationScopeRequest selects the sessions of a batch on a date.
type PresentationScopeRequest struct {
	Region      string `json:"region" form:"region" validate:"required"`
	BatchNumber string `json:"batchNumber" form:"batchNumber" validate:"required"`
	Date        string `json:"date" form:"date" validate:"required"`
}

// PresentationAssignment places a student in a group. Group 0 unassigns.
type PresentationAssignment struct {
	StudentID   string `json:"studentId" validate:"required"`
	GroupNumber int    `json:"groupNumber" validate:"min=0"`
}

// SavePresentationsRequest is the payload of POST /presentations/save.
type SavePresentationsRequest struct {
	PresentationScopeRequest
	Topic       string                   `json:"topic"`
	GroupTopics map[int]string           `json:"groupTopics"`
	Assignments []PresentationAssignment `json:"assignments" validate:"required,min=1,dive"`
}

// PresentationEvaluationInput carries the criteria of one student.
type PresentationEvaluationInput struct {
	StudentID     string   `json:"studentId" validate:"required"`
	Content       *float64 `json:"content" validate:"omitempty,min=0,max=10"`
	Design        *float64 `json:"design" validate:"omitempty,min=0,max=5"`
	Communication *float64 `json:"communication" validate:"omitempty,min=0,max=5"`
}

// EvaluatePresentationsRequest is the payload of POST /presentations/evaluate.
type EvaluatePresentationsRequest struct {
	PresentationScopeRequest
	Evaluations []PresentationEvaluationInput `json:"evaluations" validate:"required,min=1,dive"`
}

// LockEvaluationRequest toggles the evaluation lock. Locked defaults to true.
type LockEvaluationRequest struct {
	PresentationScopeRequest
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,required"`
	Locked     *bool    `json:"locked"`
}

// UpdateTopicRequest renames a group topic.
type UpdateTopicRequest struct {
	PresentationScopeRequest
	GroupNumber int    `json:"groupNumber" validate:"required,min=1"`
	Topic       string `json:"topic"`
}

// UnassignPresentationsRequest removes students from their groups.
type UnassignPresentationsRequest struct {
	PresentationScopeRequest
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,required"`
}

func (s *PresentationService) scope(req PresentationScopeRequest) (models.PresentationScope, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.PresentationScope{}, validationError(err)
	}
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return models.PresentationScope{}, err
	}
	return models.PresentationScope{Region: strings.TrimSpace(req.Region), BatchNumber: strings.TrimSpace(req.BatchNumber), Date: date}, nil
}

// ByBatch lists the active roster with each student's assignment and the
// topic of every group in use.
func (s *PresentationService) ByBatch(ctx context.Context, req PresentationScopeRequest) (*models.BatchPresentations, error) {
	scope, err := s.scope(req)
	if err != nil {
		return nil, err
	}
	result := &models.BatchPresentations{Students: []models.BatchStudentPresentation{}, GroupTopics: map[int]string{1: ""}}
	students, err := s.students.List(ctx, models.StudentFilter{Region: scope.Region, BatchNumber: scope.BatchNumber, Status: "active"})
	if err != nil {
		return nil, internalError(err, "failed to load students")
	}
	if len(students) == 0 {
		return result, nil
	}
	rows, err := s.repo.ListByScope(ctx, scope)
	if err != nil {
		return nil, internalError(err, "failed to load presentations")
	}
	byStudent := make(map[string]models.Presentation, len(rows))
	for _, p := range rows {
		byStudent[p.StudentID] = p
		if result.GroupTopics[p.GroupNumber] == "" {
			result.GroupTopics[p.GroupNumber] = p.Topic
		}
	}
	for _, st := range students {
		row := models.BatchStudentPresentation{
			StudentID:   st.ID,
			Name:        st.Name,
			SchoolName:  st.SchoolName,
			Standard:    st.Standard,
			BatchNumber: st.BatchNumber,
		}
		if p, ok := byStudent[st.ID]; ok {
			view := &models.PresentationView{
				GroupNumber:       p.GroupNumber,
				Topic:             p.Topic,
				PresentationMarks: p.PresentationMarks,
				EvaluationLocked:  p.EvaluationLocked,
				MarkedBy:          p.MarkedByName,
			}
			if eval := p.Evaluation(); eval.HasScore() {
				view.Evaluation = &eval
			}
			row.Presentation = view
		}
		result.Students = append(result.Students, row)
	}
	return result, nil
}

// Save writes the group assignments of a session. Every group needs one or
// two students and a topic; group 0 removes the caller's assignment.
func (s *PresentationService) Save(ctx context.Context, actor models.Principal, req SavePresentationsRequest) (*models.PresentationSaveResult, error) {
	for i := range req.Assignments {
		req.Assignments[i].StudentID = strings.TrimSpace(req.Assignments[i].StudentID)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope, err := s.scope(req.PresentationScopeRequest)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for _, a := range req.Assignments {
		if a.GroupNumber > 0 {
			counts[a.GroupNumber]++
		}
	}
	if len(counts) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "select one or two students for the group")
	}
	topics := make(map[int]string, len(counts))
	groups := make([]int, 0, len(counts))
	for g := range counts {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	for _, g := range groups {
		if counts[g] < models.MinGroupSize || counts[g] > models.MaxGroupSize {
			return nil, appErrors.Clone(appErrors.ErrValidation, "each group must have one or two students")
		}
		topic := strings.TrimSpace(req.GroupTopics[g])
		if topic == "" {
			topic = strings.TrimSpace(req.Topic)
		}
		if topic == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "enter a topic for each group")
		}
		topics[g] = topic
	}

	byID, err := s.lookupStudents(ctx, req.Assignments)
	if err != nil {
		return nil, err
	}

	result := &models.PresentationSaveResult{}
	markedAt := s.now().UTC()
	var unassign []string
	for _, a := range req.Assignments {
		student, ok := byID[a.StudentID]
		if !ok {
			result.Skipped++
			continue
		}
		if a.GroupNumber == 0 {
			unassign = append(unassign, student.ID)
			continue
		}
		p := &models.Presentation{
			StudentID:    student.ID,
			StudentName:  student.Name,
			Region:       student.Region,
			SchoolName:   student.SchoolName,
			BatchNumber:  student.BatchNumber,
			Date:         scope.Date,
			GroupNumber:  a.GroupNumber,
			Topic:        topics[a.GroupNumber],
			MarkedBy:     actor.ID,
			MarkedByName: actor.Name,
			MarkedAt:     markedAt,
		}
		written, existing, err := s.repo.AssignIfOwner(ctx, p)
		switch {
		case err != nil:
			return nil, internalError(err, "failed to save presentations")
		case written:
			result.Upserted++
		case existing != nil:
			result.Conflicts = append(result.Conflicts, markConflict(student, existing.MarkedByName, existing.Date))
		default:
			result.Skipped++
		}
	}
	if len(unassign) > 0 {
		deleted, err := s.repo.DeleteOwned(ctx, scope.Date, unassign, actor.ID)
		if err != nil {
			return nil, internalError(err, "failed to unassign presentations")
		}
		result.Deleted = int(deleted)
	}
	s.recordOutcome(result.Upserted, len(result.Conflicts))

	entry := principalEntry(actor, models.AuditActionPresentationSave, "presentation", "")
	entry.Meta = map[string]interface{}{
		"region":      scope.Region,
		"batchNumber": scope.BatchNumber,
		"date":        scope.Date,
		"upserted":    result.Upserted,
		"deleted":     result.Deleted,
		"skipped":     result.Skipped,
		"conflicts":   len(result.Conflicts),
	}
	s.recordAudit(ctx, entry)
	return result, nil
}

// Evaluate scores unlocked assignments owned by the caller. The derived
// presentation marks are the criteria sum clamped to 0..20, or nil when no
// criterion was given.
func (s *PresentationService) Evaluate(ctx context.Context, actor models.Principal, req EvaluatePresentationsRequest) (*models.PresentationEvaluateResult, error) {
	for i := range req.Evaluations {
		req.Evaluations[i].StudentID = strings.TrimSpace(req.Evaluations[i].StudentID)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope, err := s.scope(req.PresentationScopeRequest)
	if err != nil {
		return nil, err
	}

	result := &models.PresentationEvaluateResult{}
	now := s.now().UTC()
	for _, item := range req.Evaluations {
		eval := models.Evaluation{Content: item.Content, Design: item.Design, Communication: item.Communication}
		var marks *float64
		if eval.HasScore() {
			total := eval.Total()
			marks = &total
		}
		written, existing, err := s.repo.EvaluateIfOwner(ctx, item.StudentID, scope.Date, actor.ID, eval, marks, now)
		switch {
		case err != nil:
			return nil, internalError(err, "failed to save evaluations")
		case written:
			result.Updated++
		case existing == nil || existing.EvaluationLocked:
			result.Skipped++
		default:
			student := models.User{ID: existing.StudentID, Name: existing.StudentName}
			result.Conflicts = append(result.Conflicts, markConflict(student, existing.MarkedByName, existing.Date))
		}
	}
	s.recordOutcome(result.Updated, len(result.Conflicts))

	entry := principalEntry(actor, models.AuditActionPresentationEvaluate, "presentation", "")
	entry.Meta = map[string]interface{}{
		"date":      scope.Date,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"conflicts": len(result.Conflicts),
	}
	s.recordAudit(ctx, entry)
	return result, nil
}

// Lock sets or clears the evaluation lock of the listed students.
func (s *PresentationService) Lock(ctx context.Context, actor models.Principal, req LockEvaluationRequest) (*models.PresentationChange, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope, err := s.scope(req.PresentationScopeRequest)
	if err != nil {
		return nil, err
	}
	locked := req.Locked == nil || *req.Locked
	modified, err := s.repo.SetLocked(ctx, scope.Date, trimAll(req.StudentIDs), locked)
	if err != nil {
		return nil, internalError(err, "failed to update evaluation lock")
	}
	entry := principalEntry(actor, models.AuditActionPresentationLock, "presentation", "")
	entry.Meta = map[string]interface{}{"date": scope.Date, "locked": locked, "studentIds": req.StudentIDs, "modified": modified}
	s.recordAudit(ctx, entry)
	return &models.PresentationChange{Modified: modified}, nil
}

// UpdateTopic renames the topic on the caller's rows of a group.
func (s *PresentationService) UpdateTopic(ctx context.Context, actor models.Principal, req UpdateTopicRequest) (*models.PresentationChange, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope, err := s.scope(req.PresentationScopeRequest)
	if err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(req.Topic)
	modified, err := s.repo.UpdateTopic(ctx, scope, req.GroupNumber, topic, actor.ID)
	if err != nil {
		return nil, internalError(err, "failed to update topic")
	}
	entry := principalEntry(actor, models.AuditActionPresentationSave, "presentation", "")
	entry.Meta = map[string]interface{}{"operation": "update_topic", "date": scope.Date, "groupNumber": req.GroupNumber, "topic": topic, "modified": modified}
	s.recordAudit(ctx, entry)
	return &models.PresentationChange{Modified: modified}, nil
}

// Unassign removes the caller's assignments of the listed students.
func (s *PresentationService) Unassign(ctx context.Context, actor models.Principal, req UnassignPresentationsRequest) (*models.PresentationSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	scope, err := s.scope(req.PresentationScopeRequest)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.DeleteOwned(ctx, scope.Date, trimAll(req.StudentIDs), actor.ID)
	if err != nil {
		return nil, internalError(err, "failed to unassign presentations")
	}
	entry := principalEntry(actor, models.AuditActionPresentationSave, "presentation", "")
	entry.Meta = map[string]interface{}{"operation": "unassign", "date": scope.Date, "studentIds": req.StudentIDs, "deleted": deleted}
	s.recordAudit(ctx, entry)
	return &models.PresentationSaveResult{Deleted: int(deleted)}, nil
}

func (s *PresentationService) lookupStudents(ctx context.Context, assignments []PresentationAssignment) (map[string]models.User, error) {
	ids := make([]string, 0, len(assignments))
	for _, a := range assignments {
		ids = append(ids, a.StudentID)
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

func (s *PresentationService) recordOutcome(written, conflicts int) {
	s.metrics.RecordMarkOutcome("presentation", OutcomeWritten, written)
	s.metrics.RecordMarkOutcome("presentation", OutcomeConflict, conflicts)
}

func (s *PresentationService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
