package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

var presentationRowColumns = []string{"id", "student_id", "student_name", "region", "school_name", "batch_number", "date", "group_number", "topic", "presentation_marks",
	"evaluation_content", "evaluation_design", "evaluation_communication", "evaluation_locked", "marked_by", "marked_by_name", "marked_at"}

func presentationRow(rows *sqlmock.Rows, studentID, markedBy string, locked bool) *sqlmock.Rows {
	return rows.AddRow("p-"+studentID, studentID, "Anu", "North", "", "B1", "2024-03-01", 1, "Solar", nil, 8, 4, nil, locked, markedBy, "Asha", time.Now())
}

func TestPresentationRepositoryListByScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM presentations WHERE region = $1 AND batch_number = $2 AND date = $3 ORDER BY group_number ASC")).
		WithArgs("North", "B1", "2024-03-01").
		WillReturnRows(presentationRow(sqlmock.NewRows(presentationRowColumns), "s-1", "t-1", false))

	rows, err := repo.ListByScope(context.Background(), models.PresentationScope{Region: "North", BatchNumber: "B1", Date: "2024-03-01"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	eval := rows[0].Evaluation()
	assert.True(t, eval.HasScore())
	assert.Equal(t, 12.0, eval.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresentationRepositoryAssignIfOwnerConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE presentations.marked_by = EXCLUDED.marked_by RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("FROM presentations WHERE student_id = $1 AND date = $2")).
		WithArgs("s-1", "2024-03-01").
		WillReturnRows(presentationRow(sqlmock.NewRows(presentationRowColumns), "s-1", "t-2", false))

	written, existing, err := repo.AssignIfOwner(context.Background(), &models.Presentation{StudentID: "s-1", Date: "2024-03-01", GroupNumber: 1, Topic: "Solar", MarkedBy: "t-1"})
	require.NoError(t, err)
	assert.False(t, written)
	require.NotNil(t, existing)
	assert.Equal(t, "t-2", existing.MarkedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresentationRepositoryEvaluateIfOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)
	now := time.Now()
	eval := models.Evaluation{Content: floatPtr(9), Design: floatPtr(4), Communication: floatPtr(5)}
	marks := 18.0

	mock.ExpectExec(regexp.QuoteMeta("WHERE student_id = $6 AND date = $7 AND marked_by = $8 AND evaluation_locked = FALSE")).
		WithArgs(9.0, 4.0, 5.0, 18.0, now, "s-1", "2024-03-01", "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	written, existing, err := repo.EvaluateIfOwner(context.Background(), "s-1", "2024-03-01", "t-1", eval, &marks, now)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Nil(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresentationRepositoryEvaluateLocked(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE presentations SET evaluation_content")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM presentations WHERE student_id = $1 AND date = $2")).
		WithArgs("s-1", "2024-03-01").
		WillReturnRows(presentationRow(sqlmock.NewRows(presentationRowColumns), "s-1", "t-1", true))

	written, existing, err := repo.EvaluateIfOwner(context.Background(), "s-1", "2024-03-01", "t-1", models.Evaluation{}, nil, time.Now())
	require.NoError(t, err)
	assert.False(t, written)
	require.NotNil(t, existing)
	assert.True(t, existing.EvaluationLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresentationRepositoryEvaluateMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE presentations SET evaluation_content")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM presentations WHERE student_id = $1 AND date = $2")).
		WillReturnRows(sqlmock.NewRows(presentationRowColumns))

	written, existing, err := repo.EvaluateIfOwner(context.Background(), "s-1", "2024-03-01", "t-1", models.Evaluation{}, nil, time.Now())
	require.NoError(t, err)
	assert.False(t, written)
	assert.Nil(t, existing)
}

func TestPresentationRepositoryLockTopicAndUnassign(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPresentationRepository(db)
	ids := []string{"s-1", "s-2"}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE presentations SET evaluation_locked = $1 WHERE date = $2 AND student_id = ANY($3)")).
		WithArgs(true, "2024-03-01", pq.Array(ids)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE presentations SET topic = $1")).
		WithArgs("Wind", "North", "B1", "2024-03-01", 2, "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM presentations WHERE date = $1 AND student_id = ANY($2) AND marked_by = $3")).
		WithArgs("2024-03-01", pq.Array(ids), "t-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	locked, err := repo.SetLocked(context.Background(), "2024-03-01", ids, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, locked)

	updated, err := repo.UpdateTopic(context.Background(), models.PresentationScope{Region: "North", BatchNumber: "B1", Date: "2024-03-01"}, 2, "Wind", "t-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, updated)

	deleted, err := repo.DeleteOwned(context.Background(), "2024-03-01", ids, "t-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
