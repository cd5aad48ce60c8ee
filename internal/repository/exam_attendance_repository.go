package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const examAttendanceColumns = `id, student_id, student_name, region, school_name, batch_number, date, appeared, marked_by, marked_by_name, marked_at`

// ExamAttendanceRepository persists exam sitting records.
type ExamAttendanceRepository struct {
	db *sqlx.DB
}

// NewExamAttendanceRepository constructs the repository.
func NewExamAttendanceRepository(db *sqlx.DB) *ExamAttendanceRepository {
	return &ExamAttendanceRepository{db: db}
}

// MarkIfOwner upserts the record unless another marker owns the pair.
func (r *ExamAttendanceRepository) MarkIfOwner(ctx context.Context, record *models.ExamAttendance) (bool, *models.ExamAttendance, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.MarkedAt.IsZero() {
		record.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO exam_attendance (id, student_id, student_name, region, school_name, batch_number, date, appeared, marked_by, marked_by_name, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (student_id, date) DO UPDATE SET
    appeared = EXCLUDED.appeared,
    marked_by_name = EXCLUDED.marked_by_name,
    marked_at = EXCLUDED.marked_at
WHERE exam_attendance.marked_by = EXCLUDED.marked_by
RETURNING id`
	var id string
	err := r.db.QueryRowxContext(ctx, query,
		record.ID, record.StudentID, record.StudentName, record.Region, record.SchoolName, record.BatchNumber,
		record.Date, record.Appeared, record.MarkedBy, record.MarkedByName, record.MarkedAt,
	).Scan(&id)
	if err == nil {
		record.ID = id
		return true, nil, nil
	}
	if err != sql.ErrNoRows {
		return false, nil, fmt.Errorf("save exam attendance: %w", err)
	}

	var existing models.ExamAttendance
	if err := r.db.GetContext(ctx, &existing, `SELECT `+examAttendanceColumns+` FROM exam_attendance WHERE student_id = $1 AND date = $2`, record.StudentID, record.Date); err != nil {
		return false, nil, fmt.Errorf("load conflicting exam attendance: %w", err)
	}
	return false, &existing, nil
}

// ListByBatchDate returns the records of a batch for a date.
func (r *ExamAttendanceRepository) ListByBatchDate(ctx context.Context, region, batchNumber, date string) ([]models.ExamAttendance, error) {
	query := `SELECT ` + examAttendanceColumns + ` FROM exam_attendance WHERE region = $1 AND batch_number = $2 AND date = $3`
	var records []models.ExamAttendance
	if err := r.db.SelectContext(ctx, &records, query, region, batchNumber, date); err != nil {
		return nil, fmt.Errorf("list exam attendance: %w", err)
	}
	return records, nil
}
