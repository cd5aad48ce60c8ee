package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var attendanceRowColumns = []string{"id", "student_id", "student_name", "region", "school_name", "batch_number", "date", "status", "note", "marked_by", "marked_by_name", "marked_at", "history"}

func sampleMark() models.AttendanceMark {
	return models.AttendanceMark{
		Student:      models.User{ID: "s-1", Name: "Anu", Region: "North", SchoolName: "Hill School", BatchNumber: "B1"},
		Date:         "2024-03-01",
		Status:       models.AttendanceStatusPresent,
		MarkedBy:     "t-1",
		MarkedByName: "Asha",
		MarkedAt:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func expectMarkInsert(mock sqlmock.Sqlmock, mark models.AttendanceMark) *sqlmock.ExpectedQuery {
	return mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance")).
		WithArgs(sqlmock.AnyArg(), mark.Student.ID, mark.Student.Name, mark.Student.Region, mark.Student.SchoolName, mark.Student.BatchNumber,
			mark.Date, mark.Status, mark.Note, mark.MarkedBy, mark.MarkedByName, mark.MarkedAt)
}

func TestAttendanceRepositoryMarkIfOwnerInserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	expectMarkInsert(mock, mark).WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.True(t, result.Inserted)
	assert.Nil(t, result.Existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerQueryIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (student_id, date) DO UPDATE SET") + ".*" +
		regexp.QuoteMeta("WHERE attendance.marked_by = EXCLUDED.marked_by RETURNING (xmax = 0) AS inserted")).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.False(t, result.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerPrependsHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	mock.ExpectQuery(regexp.QuoteMeta("history = jsonb_build_array(jsonb_build_object("+
		"'status', attendance.status, 'note', attendance.note, 'markedBy', attendance.marked_by, "+
		"'markedByName', attendance.marked_by_name, 'markedAt', attendance.marked_at)) || attendance.history "+
		"WHERE attendance.marked_by = EXCLUDED.marked_by")).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerRetriesVanishedConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	expectMarkInsert(mock, mark).WillReturnRows(sqlmock.NewRows([]string{"inserted"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE student_id = $1 AND date = $2")).
		WithArgs("s-1", "2024-03-01").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns))
	expectMarkInsert(mock, mark).WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.True(t, result.Inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerGivesUpAfterSecondLoss(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	for i := 0; i < 2; i++ {
		expectMarkInsert(mock, mark).WillReturnRows(sqlmock.NewRows([]string{"inserted"}))
		mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE student_id = $1 AND date = $2")).
			WithArgs("s-1", "2024-03-01").
			WillReturnRows(sqlmock.NewRows(attendanceRowColumns))
	}

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Nil(t, result.Existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	expectMarkInsert(mock, mark).WillReturnRows(sqlmock.NewRows([]string{"inserted"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE student_id = $1 AND date = $2")).
		WithArgs("s-1", "2024-03-01").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("a-1", "s-1", "Anu", "North", "Hill School", "B1", "2024-03-01", "absent", nil, "t-2", "Bala", time.Now(), `[]`))

	result, err := repo.MarkIfOwner(context.Background(), mark)
	require.NoError(t, err)
	assert.False(t, result.Written)
	require.NotNil(t, result.Existing)
	assert.Equal(t, "Bala", result.Existing.MarkedByName)
	assert.Equal(t, models.AttendanceStatusAbsent, result.Existing.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryMarkIfOwnerError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mark := sampleMark()
	expectMarkInsert(mock, mark).WillReturnError(errors.New("boom"))

	_, err := repo.MarkIfOwner(context.Background(), mark)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark attendance")
}

func TestAttendanceRepositoryFindByIDDecodesHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	history := `[{"status":"absent","markedBy":"t-1","markedByName":"Asha","markedAt":"2024-03-01T08:00:00Z"}]`
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE id = $1")).
		WithArgs("a-1").
		WillReturnRows(sqlmock.NewRows(attendanceRowColumns).
			AddRow("a-1", "s-1", "Anu", "North", "Hill School", "B1", "2024-03-01", "present", nil, "t-1", "Asha", time.Now(), history))

	record, err := repo.FindByID(context.Background(), "a-1")
	require.NoError(t, err)
	require.Len(t, record.History, 1)
	assert.Equal(t, models.AttendanceStatusAbsent, record.History[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDeleteOwned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM attendance WHERE date = $1 AND marked_by = $2 AND region = $3 AND batch_number = $4")).
		WithArgs("2024-03-01", "t-1", "North", "B1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := repo.DeleteOwned(context.Background(), models.UndoAttendanceParams{Region: "North", BatchNumber: "B1", Date: "2024-03-01", MarkedBy: "t-1"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStudentTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance WHERE 1=1 AND region = $1 AND date >= $2 AND date <= $3 GROUP BY student_id")).
		WithArgs("North", "2024-03-01", "2024-03-31").
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "present", "late", "leave", "absent", "total", "marked_by"}).
			AddRow("s-1", 3, 1, 0, 1, 5, "Asha"))

	totals, err := repo.StudentTotals(context.Background(), models.AttendanceRange{Region: "North", BatchNumber: "all", StartDate: "2024-03-01", EndDate: "2024-03-31"})
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, 5, totals[0].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryAbsenceTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND region = $1 AND date >= $2 AND date <= $3 AND status = $4 GROUP BY student_id HAVING COUNT(*) >= $5")).
		WithArgs("North", "2024-03-01", "2024-03-30", models.AttendanceStatusAbsent, 3).
		WillReturnRows(sqlmock.NewRows([]string{"student_id", "absent_count", "absent_dates"}).
			AddRow("s-1", 3, "{2024-03-02,2024-03-05,2024-03-09}"))

	totals, err := repo.AbsenceTotals(context.Background(), models.AttendanceRange{Region: "North", StartDate: "2024-03-01", EndDate: "2024-03-30"}, 3)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, []string{"2024-03-02", "2024-03-05", "2024-03-09"}, []string(totals[0].AbsentDates))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDistinctDates(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT date) FROM attendance WHERE 1=1 AND region = $1 AND batch_number = $2")).
		WithArgs("North", "B1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	days, err := repo.DistinctDates(context.Background(), models.AttendanceRange{Region: "North", BatchNumber: "B1"})
	require.NoError(t, err)
	assert.Equal(t, 12, days)
	assert.NoError(t, mock.ExpectationsWereMet())
}
