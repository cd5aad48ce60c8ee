package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var workReportRowColumns = []string{"id", "teacher_id", "teacher_name", "date", "region", "batch_number", "subject", "topics_covered", "assignment", "attendance_count", "created_at", "updated_at"}

func TestWorkReportRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkReportRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (teacher_id, date, region, batch_number) DO UPDATE SET")).
		WillReturnRows(sqlmock.NewRows(workReportRowColumns).
			AddRow("w-1", "t-1", "Asha", "2024-03-01", "North", "B1", "Science", "Light", "Worksheet", 18, now, now))

	stored, err := repo.Upsert(context.Background(), &models.WorkReport{TeacherID: "t-1", Date: "2024-03-01", Region: "North", BatchNumber: "B1", Subject: "Science"})
	require.NoError(t, err)
	assert.Equal(t, "w-1", stored.ID)
	assert.Equal(t, 18, stored.AttendanceCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWorkReportRepositoryListAndDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewWorkReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM work_reports WHERE teacher_id = $1 AND date = $2 ORDER BY date DESC")).
		WithArgs("t-1", "2024-03-01").
		WillReturnRows(sqlmock.NewRows(workReportRowColumns))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM work_reports WHERE id = $1 AND teacher_id = $2")).
		WithArgs("w-1", "t-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	reports, err := repo.List(context.Background(), models.WorkReportFilter{TeacherID: "t-1", Date: "2024-03-01", BatchNumber: "all"})
	require.NoError(t, err)
	assert.Empty(t, reports)

	deleted, err := repo.DeleteOwned(context.Background(), "w-1", "t-1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamPlanRepositorySave(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamPlanRepository(db)

	theory := "2024-04-01"
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO region_milestones")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_plans")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Save(context.Background(),
		&models.RegionMilestone{Region: "North", UpdatedBy: "t-1", UpdatedAt: time.Now()},
		&models.ExamPlan{Region: "North", BatchNumber: "B1", TheoryDate: &theory, UpdatedBy: "t-1", UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamPlanRepositorySaveRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamPlanRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO region_milestones")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_plans")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Save(context.Background(), &models.RegionMilestone{Region: "North"}, &models.ExamPlan{Region: "North", BatchNumber: "B1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamPlanRepositoryGetPlanNone(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_plans WHERE region = $1 AND batch_number = $2")).
		WithArgs("North", "B1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	plan, err := repo.GetPlan(context.Background(), "North", "B1")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestAuditRepositoryInsertAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Insert(context.Background(), &models.AuditLog{Action: models.AuditActionAttendanceMark, Entity: "attendance", Meta: models.RawJSON(`{"total":2}`)}))

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs WHERE 1=1 AND action = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(models.AuditActionAttendanceMark).
		WillReturnRows(sqlmock.NewRows([]string{"id", "actor_id", "actor_name", "action", "entity", "entity_id", "before", "after", "meta", "created_at"}).
			AddRow("a-1", "t-1", "Asha", "attendance_mark", "attendance", nil, nil, nil, []byte(`{"total":2}`), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_logs WHERE 1=1 AND action = $1")).
		WithArgs(models.AuditActionAttendanceMark).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.List(context.Background(), models.AuditLogFilter{Action: models.AuditActionAttendanceMark})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, total)
	assert.JSONEq(t, `{"total":2}`, string(logs[0].Meta))
	assert.Nil(t, logs[0].Before)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactLogRepositoryCreateAndList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewContactLogRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_logs")).WillReturnResult(sqlmock.NewResult(1, 1))
	entry := &models.ContactLog{StudentID: "s-1", TeacherID: "t-1", Source: "roster"}
	require.NoError(t, repo.Create(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)

	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_logs WHERE 1=1 AND region = $1 AND created_at >= $2 ORDER BY created_at DESC LIMIT 200")).
		WithArgs("North", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "student_name", "student_mobile", "teacher_id", "teacher_name", "region", "school_name", "batch_number", "standard", "phone_dialed", "source", "created_at"}))

	logs, err := repo.List(context.Background(), models.ContactLogFilter{Region: "North", BatchNumber: "all", Since: since}, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
