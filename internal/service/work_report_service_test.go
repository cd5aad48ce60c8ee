package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type workReportStore struct {
	reports    map[string]models.WorkReport
	lastFilter models.WorkReportFilter
}

func (m *workReportStore) Upsert(ctx context.Context, report *models.WorkReport) (*models.WorkReport, error) {
	key := report.TeacherID + "|" + report.Date + "|" + report.Region + "|" + report.BatchNumber
	for id, existing := range m.reports {
		if existing.TeacherID+"|"+existing.Date+"|"+existing.Region+"|"+existing.BatchNumber == key {
			report.ID = id
		}
	}
	if report.ID == "" {
		report.ID = "wr" + string(rune('0'+len(m.reports)+1))
	}
	m.reports[report.ID] = *report
	stored := *report
	return &stored, nil
}

func (m *workReportStore) List(ctx context.Context, filter models.WorkReportFilter) ([]models.WorkReport, error) {
	m.lastFilter = filter
	var out []models.WorkReport
	for _, r := range m.reports {
		if r.TeacherID == filter.TeacherID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *workReportStore) FindOwned(ctx context.Context, id, teacherID string) (*models.WorkReport, error) {
	if r, ok := m.reports[id]; ok && r.TeacherID == teacherID {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *workReportStore) DeleteOwned(ctx context.Context, id, teacherID string) (bool, error) {
	if r, ok := m.reports[id]; ok && r.TeacherID == teacherID {
		delete(m.reports, id)
		return true, nil
	}
	return false, nil
}

func intPtr(v int) *int { return &v }

func TestWorkReportSaveUpsertsPerBatchDay(t *testing.T) {
	store := &workReportStore{reports: map[string]models.WorkReport{}}
	audit := &auditSpy{}
	svc := NewWorkReportService(store, audit, nil, nil)
	req := SaveWorkReportRequest{Date: "2024-03-01", Region: "north", BatchNumber: "B1", Subject: "Maths", TopicsCovered: "Fractions", Assignment: "Ex 3", AttendanceCount: intPtr(18)}

	first, err := svc.Save(context.Background(), teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, "t1", first.TeacherID)
	assert.Equal(t, "Asha", first.TeacherName)

	req.Subject = "Science"
	second, err := svc.Save(context.Background(), teacherActor, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.reports, 1)
	assert.Equal(t, []string{models.AuditActionWorkReportSave, models.AuditActionWorkReportSave}, audit.actions())
}

func TestWorkReportSaveValidation(t *testing.T) {
	svc := NewWorkReportService(&workReportStore{reports: map[string]models.WorkReport{}}, nil, nil, nil)
	base := SaveWorkReportRequest{Date: "2024-03-01", Region: "north", BatchNumber: "B1", Subject: "Maths", TopicsCovered: "x", Assignment: "y", AttendanceCount: intPtr(0)}

	missingCount := base
	missingCount.AttendanceCount = nil
	_, err := svc.Save(context.Background(), teacherActor, missingCount)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	negative := base
	negative.AttendanceCount = intPtr(-1)
	_, err = svc.Save(context.Background(), teacherActor, negative)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	badDate := base
	badDate.Date = "01/03/2024"
	_, err = svc.Save(context.Background(), teacherActor, badDate)
	assert.Equal(t, appErrors.ErrInvalidFormat.Code, appErrors.FromError(err).Code)
}

func TestWorkReportScopedToCaller(t *testing.T) {
	store := &workReportStore{reports: map[string]models.WorkReport{
		"mine":   {ID: "mine", TeacherID: "t1", Date: "2024-03-01"},
		"theirs": {ID: "theirs", TeacherID: "t2", Date: "2024-03-01"},
	}}
	audit := &auditSpy{}
	svc := NewWorkReportService(store, audit, nil, nil)
	ctx := context.Background()

	reports, err := svc.List(ctx, teacherActor, WorkReportQuery{Date: "2024-03-01T00:00:00Z", BatchNumber: "all"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-03-01", store.lastFilter.Date)
	assert.Equal(t, "t1", store.lastFilter.TeacherID)

	_, err = svc.Get(ctx, teacherActor, "theirs")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(ctx, teacherActor, "theirs")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, teacherActor, "mine"))
	assert.Equal(t, []string{models.AuditActionWorkReportDelete}, audit.actions())
}
