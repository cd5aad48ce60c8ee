package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type marksStore struct {
	mu      sync.Mutex
	owners  map[string]models.Mark
	saved   []*models.Mark
	byDate  map[string][]models.Mark
	latest  map[models.ExamComponent]string
	top     []models.TopScorer
	scopes  []models.MarksScope
	topArgs models.MarksScope
}

func newMarksStore() *marksStore {
	return &marksStore{owners: map[string]models.Mark{}, byDate: map[string][]models.Mark{}, latest: map[models.ExamComponent]string{}}
}

func (m *marksStore) MarkIfOwner(ctx context.Context, mark *models.Mark) (bool, *models.Mark, error) {
	key := mark.StudentID + "|" + mark.Date
	if existing, ok := m.owners[key]; ok && existing.MarkedBy != mark.MarkedBy {
		return false, &existing, nil
	}
	m.owners[key] = *mark
	m.saved = append(m.saved, mark)
	return true, nil, nil
}

func (m *marksStore) ListByScope(ctx context.Context, scope models.MarksScope) ([]models.Mark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scopes = append(m.scopes, scope)
	var out []models.Mark
	for date, marks := range m.byDate {
		if date >= scope.StartDate && date <= scope.EndDate {
			out = append(out, marks...)
		}
	}
	return out, nil
}

func (m *marksStore) LatestDate(ctx context.Context, scope models.MarksScope, component models.ExamComponent) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest[component], nil
}

func (m *marksStore) Top(ctx context.Context, scope models.MarksScope, limit int) ([]models.TopScorer, error) {
	m.topArgs = scope
	return m.top, nil
}

type scoredStore struct {
	byDate map[string][]models.Presentation
	latest string
}

func (m *scoredStore) ListScored(ctx context.Context, scope models.MarksScope) ([]models.Presentation, error) {
	var out []models.Presentation
	for date, rows := range m.byDate {
		if date >= scope.StartDate && date <= scope.EndDate {
			out = append(out, rows...)
		}
	}
	return out, nil
}

func (m *scoredStore) LatestScoredDate(ctx context.Context, scope models.MarksScope) (string, error) {
	return m.latest, nil
}

type examStore struct {
	owners  map[string]models.ExamAttendance
	records []models.ExamAttendance
}

func (m *examStore) MarkIfOwner(ctx context.Context, record *models.ExamAttendance) (bool, *models.ExamAttendance, error) {
	key := record.StudentID + "|" + record.Date
	if existing, ok := m.owners[key]; ok && existing.MarkedBy != record.MarkedBy {
		return false, &existing, nil
	}
	m.owners[key] = *record
	return true, nil, nil
}

func (m *examStore) ListByBatchDate(ctx context.Context, region, batchNumber, date string) ([]models.ExamAttendance, error) {
	return m.records, nil
}

type marksFixture struct {
	svc     *MarksService
	marks   *marksStore
	exams   *examStore
	scored  *scoredStore
	audit   *auditSpy
	metrics *MetricsService
}

func newMarksFixture(students ...models.User) marksFixture {
	f := marksFixture{
		marks:   newMarksStore(),
		exams:   &examStore{owners: map[string]models.ExamAttendance{}},
		scored:  &scoredStore{byDate: map[string][]models.Presentation{}},
		audit:   &auditSpy{},
		metrics: NewMetricsService(),
	}
	f.svc = NewMarksService(f.marks, f.exams, f.scored, newStudentStore(students...), f.audit, f.metrics, nil, nil)
	f.svc.now = fixedClock
	return f
}

func floatRef(v float64) *float64 { return &v }

func TestMarksMarkComputesTotals(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"))

	result, err := f.svc.Mark(context.Background(), teacherActor, MarkMarksRequest{
		MarksRecords: []MarksRecordInput{{StudentID: "s1", Theory: floatRef(33.5), Practical: floatRef(30), Presentation: nil}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Results.Successful)
	require.Len(t, f.marks.saved, 1)
	saved := f.marks.saved[0]
	assert.Equal(t, "2024-03-10", saved.Date)
	assert.Equal(t, 63.5, saved.TotalObtained)
	assert.Equal(t, 63.5, saved.Percentage)
	assert.Equal(t, 100.0, saved.TotalMarks)
	assert.Nil(t, saved.Presentation)
	assert.Equal(t, []string{models.AuditActionMarksSave}, f.audit.actions())
}

func TestMarksMarkRejectsOutOfRangeAndForeignOwner(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"), student("s2", "Bo", "B1"))
	f.marks.owners["s2|2024-03-01"] = models.Mark{StudentID: "s2", Date: "2024-03-01", MarkedBy: "t2", MarkedByName: "Ravi"}

	result, err := f.svc.Mark(context.Background(), teacherActor, MarkMarksRequest{
		Date: "2024-03-01",
		MarksRecords: []MarksRecordInput{
			{StudentID: "s1", Theory: floatRef(41)},
			{StudentID: "s2", Theory: floatRef(20)},
			{StudentID: "ghost", Theory: floatRef(20)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Results.Successful)
	assert.Equal(t, 3, result.Results.Errors)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, models.MarkConflict{StudentID: "s2", StudentName: "Bo", MarkedBy: "Ravi", Date: "2024-03-01"}, result.Conflicts[0])
	assert.Contains(t, result.Warning, "1 student(s)")
	require.Len(t, result.Failures, 2)
	assert.Equal(t, appErrors.ErrValidation.Code, result.Failures[0].Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, result.Failures[1].Code)
}

func TestMarksMarkValidation(t *testing.T) {
	f := newMarksFixture()
	_, err := f.svc.Mark(context.Background(), teacherActor, MarkMarksRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.svc.Mark(context.Background(), teacherActor, MarkMarksRequest{Date: "tomorrow", MarksRecords: []MarksRecordInput{{StudentID: "s1"}}})
	assert.Equal(t, appErrors.ErrInvalidFormat.Code, appErrors.FromError(err).Code)
}

func TestMarksByBatchPrefill(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"), student("s2", "Bo", "B1"), student("s3", "Cy", "B1"))
	f.marks.byDate["2024-03-01"] = []models.Mark{{StudentID: "s1", Date: "2024-03-01", TotalObtained: 50}}
	f.scored.byDate["2024-03-01"] = []models.Presentation{
		{StudentID: "s1", PresentationMarks: floatRef(12)},
		{StudentID: "s2", EvaluationContent: floatRef(10), EvaluationDesign: floatRef(5), EvaluationCommunication: floatRef(9)},
	}

	rows, err := f.svc.ByBatch(context.Background(), MarksByBatchRequest{Region: "north", Date: "2024-03-01", BatchNumber: "B1"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].Marks)
	assert.Equal(t, 12.0, *rows[0].PresentationPrefill)
	assert.Equal(t, 20.0, *rows[1].PresentationPrefill)
	assert.Nil(t, rows[1].Marks)
	assert.Nil(t, rows[2].PresentationPrefill)
}

func TestMarksMissedSingle(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"), student("s2", "Bo", "B1"))
	f.marks.byDate["2024-03-01"] = []models.Mark{{StudentID: "s1", Theory: floatRef(30), Practical: floatRef(30)}}
	f.scored.byDate["2024-03-01"] = []models.Presentation{{StudentID: "s1", PresentationMarks: floatRef(15)}}

	report, err := f.svc.Missed(context.Background(), MissedExamRequest{Region: "north", Date: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, models.MissedModeSingle, report.Mode)
	require.NotNil(t, report.UsedDates.SingleDate)
	require.Len(t, report.Students, 1)
	assert.Equal(t, "s2", report.Students[0].StudentID)
	assert.Equal(t, models.MissedComponents{Theory: true, Practical: true, Presentation: true}, report.Students[0].Missed)
}

func TestMarksMissedPlanChecksEachComponentOnItsDate(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"))
	f.marks.byDate["2024-03-01"] = []models.Mark{{StudentID: "s1", Theory: floatRef(30), Practical: floatRef(20)}}
	f.marks.byDate["2024-03-02"] = []models.Mark{{StudentID: "s1", Theory: floatRef(30)}}

	report, err := f.svc.Missed(context.Background(), MissedExamRequest{
		Region: "north", Mode: "plan", TheoryDate: "2024-03-01", PracticalDate: "2024-03-02", PresentationDate: "2024-03-03",
	})
	require.NoError(t, err)
	require.Len(t, report.Students, 1)
	assert.Equal(t, models.MissedComponents{Theory: false, Practical: true, Presentation: true}, report.Students[0].Missed)
}

func TestMarksMissedRangeAndLatest(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"))
	f.marks.byDate["2024-03-01"] = []models.Mark{{StudentID: "s1", Theory: floatRef(30)}}
	f.marks.byDate["2024-03-05"] = []models.Mark{{StudentID: "s1", Practical: floatRef(30)}}
	f.scored.byDate["2024-03-06"] = []models.Presentation{{StudentID: "s1", EvaluationDesign: floatRef(3)}}

	report, err := f.svc.Missed(context.Background(), MissedExamRequest{Region: "north", Mode: "range", StartDate: "2024-03-01", EndDate: "2024-03-06"})
	require.NoError(t, err)
	assert.Empty(t, report.Students)

	f.marks.latest[models.ComponentTheory] = "2024-03-01"
	f.marks.latest[models.ComponentPractical] = "2024-03-05"
	f.scored.latest = "2024-03-06"
	report, err = f.svc.Missed(context.Background(), MissedExamRequest{Region: "north", Mode: "LATEST"})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-06", *report.UsedDates.PresentationDate)
	assert.Empty(t, report.Students)
}

func TestMarksMissedValidation(t *testing.T) {
	f := newMarksFixture()
	cases := map[string]MissedExamRequest{
		"unknown mode":   {Region: "north", Mode: "weekly"},
		"single no date": {Region: "north"},
		"plan partial":   {Region: "north", Mode: "plan", TheoryDate: "2024-03-01"},
		"range partial":  {Region: "north", Mode: "range", StartDate: "2024-03-01"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Missed(context.Background(), req)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	_, err := f.svc.Missed(context.Background(), MissedExamRequest{Region: "north", Mode: "range", StartDate: "2024-03-09", EndDate: "2024-03-01"})
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestMarksTop(t *testing.T) {
	f := newMarksFixture()
	f.marks.top = []models.TopScorer{{StudentID: "s1", TotalObtained: 90}}
	top, err := f.svc.Top(context.Background(), TopMarksRequest{Date: "2024-03-01T10:00:00Z", BatchNumber: "all"})
	require.NoError(t, err)
	assert.Len(t, top, 1)
	assert.Equal(t, "2024-03-01", f.marks.topArgs.StartDate)
}

func TestMarksExamAttendance(t *testing.T) {
	f := newMarksFixture(student("s1", "Ana", "B1"), student("s2", "Bo", "B1"))
	f.exams.owners["s2|2024-03-01"] = models.ExamAttendance{StudentID: "s2", Date: "2024-03-01", MarkedBy: "t2", MarkedByName: "Ravi"}

	result, err := f.svc.MarkExamAttendance(context.Background(), teacherActor, MarkExamAttendanceRequest{
		Date:    "2024-03-01",
		Records: []ExamAttendanceInput{{StudentID: "s1", Appeared: true}, {StudentID: "s2", Appeared: false}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Results.Successful)
	assert.Len(t, result.Conflicts, 1)
	assert.Equal(t, 1, result.Results.Errors)

	f.exams.records = []models.ExamAttendance{{StudentID: "s1", Appeared: true, MarkedByName: "Asha"}}
	rows, err := f.svc.ExamAttendanceByBatch(context.Background(), ExamAttendanceByBatchRequest{Region: "north", BatchNumber: "B1", Date: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].Appeared)
	assert.True(t, *rows[0].Appeared)
	assert.Nil(t, rows[1].Appeared)
}
