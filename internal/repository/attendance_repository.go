package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const attendanceColumns = `id, student_id, student_name, region, school_name, batch_number, date, status, note, marked_by, marked_by_name, marked_at, history`

// AttendanceTotals are per student counters over a period.
type AttendanceTotals struct {
	StudentID string `db:"student_id"`
	Present   int    `db:"present"`
	Late      int    `db:"late"`
	Leave     int    `db:"leave"`
	Absent    int    `db:"absent"`
	Total     int    `db:"total"`
	MarkedBy  string `db:"marked_by"`
}

// AbsenceTotals lists absences of a student over a period.
type AbsenceTotals struct {
	StudentID   string         `db:"student_id"`
	AbsentCount int            `db:"absent_count"`
	AbsentDates pq.StringArray `db:"absent_dates"`
}

// AttendanceRepository persists attendance marks.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// MarkIfOwner writes the mark in a single conditional statement. A new pair
// is inserted; an existing pair is overwritten only when it belongs to the
// same marker, pushing the superseded state onto the head of the history.
// When the pair is owned by someone else nothing is written and the stored
// record is returned in Existing. A conflicting row that vanishes before it
// can be read back gets one more write attempt; if that also loses, the
// result is a conflict with no Existing record.
func (r *AttendanceRepository) MarkIfOwner(ctx context.Context, mark models.AttendanceMark) (*models.MarkWriteResult, error) {
	if mark.MarkedAt.IsZero() {
		mark.MarkedAt = time.Now().UTC()
	}
	for attempt := 0; attempt < 2; attempt++ {
		written, inserted, err := r.upsertIfOwner(ctx, mark)
		if err != nil {
			return nil, err
		}
		if written {
			return &models.MarkWriteResult{Written: true, Inserted: inserted}, nil
		}

		existing, err := r.FindByStudentDate(ctx, mark.Student.ID, mark.Date)
		if err == nil {
			return &models.MarkWriteResult{Existing: existing}, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("load conflicting attendance: %w", err)
		}
	}
	return &models.MarkWriteResult{}, nil
}

const markIfOwnerQuery = `INSERT INTO attendance (id, student_id, student_name, region, school_name, batch_number, date, status, note, marked_by, marked_by_name, marked_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12, $12)
ON CONFLICT (student_id, date) DO UPDATE SET
    status = EXCLUDED.status,
    note = EXCLUDED.note,
    marked_by_name = EXCLUDED.marked_by_name,
    marked_at = EXCLUDED.marked_at,
    updated_at = EXCLUDED.updated_at,
    history = jsonb_build_array(jsonb_build_object('status', attendance.status, 'note', attendance.note,
        'markedBy', attendance.marked_by, 'markedByName', attendance.marked_by_name, 'markedAt', attendance.marked_at)) || attendance.history
WHERE attendance.marked_by = EXCLUDED.marked_by
RETURNING (xmax = 0) AS inserted`

// upsertIfOwner reports written=false when the row exists under another marker.
func (r *AttendanceRepository) upsertIfOwner(ctx context.Context, mark models.AttendanceMark) (written, inserted bool, err error) {
	err = r.db.QueryRowxContext(ctx, markIfOwnerQuery,
		uuid.NewString(),
		mark.Student.ID,
		mark.Student.Name,
		mark.Student.Region,
		mark.Student.SchoolName,
		mark.Student.BatchNumber,
		mark.Date,
		mark.Status,
		mark.Note,
		mark.MarkedBy,
		mark.MarkedByName,
		mark.MarkedAt,
	).Scan(&inserted)
	switch {
	case err == nil:
		return true, inserted, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, false, nil
	default:
		return false, false, fmt.Errorf("mark attendance: %w", err)
	}
}

// FindByStudentDate returns the mark for a pair.
func (r *AttendanceRepository) FindByStudentDate(ctx context.Context, studentID, date string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE student_id = $1 AND date = $2`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID returns a mark including its history.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := `SELECT ` + attendanceColumns + ` FROM attendance WHERE id = $1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance by id: %w", err)
	}
	return &record, nil
}

func attendanceRangeWhere(rng models.AttendanceRange) (string, []interface{}) {
	conditions := []string{"1=1"}
	var args []interface{}
	if rng.Region != "" {
		args = append(args, rng.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(rng.BatchNumber) {
		args = append(args, rng.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if len(rng.StudentIDs) > 0 {
		args = append(args, pq.Array(rng.StudentIDs))
		conditions = append(conditions, fmt.Sprintf("student_id = ANY($%d)", len(args)))
	}
	if rng.StartDate != "" {
		args = append(args, rng.StartDate)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if rng.EndDate != "" {
		args = append(args, rng.EndDate)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	if rng.Status != nil && rng.Status.Valid() {
		args = append(args, *rng.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

// ListRange returns marks within the range ordered by date descending.
func (r *AttendanceRepository) ListRange(ctx context.Context, rng models.AttendanceRange) ([]models.AttendanceRecord, error) {
	where, args := attendanceRangeWhere(rng)
	query := fmt.Sprintf("SELECT %s FROM attendance WHERE %s ORDER BY date DESC, student_name ASC", attendanceColumns, where)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// DeleteOwned removes the marks of a batch on a date that belong to the caller.
func (r *AttendanceRepository) DeleteOwned(ctx context.Context, params models.UndoAttendanceParams) (int64, error) {
	args := []interface{}{params.Date, params.MarkedBy}
	conditions := []string{"date = $1", "marked_by = $2"}
	if params.Region != "" {
		args = append(args, params.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(params.BatchNumber) {
		args = append(args, params.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if len(params.StudentIDs) > 0 {
		args = append(args, pq.Array(params.StudentIDs))
		conditions = append(conditions, fmt.Sprintf("student_id = ANY($%d)", len(args)))
	}
	query := "DELETE FROM attendance WHERE " + strings.Join(conditions, " AND ")
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("undo attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("undo attendance rows: %w", err)
	}
	return affected, nil
}

// StudentTotals aggregates status counters per student.
func (r *AttendanceRepository) StudentTotals(ctx context.Context, rng models.AttendanceRange) ([]AttendanceTotals, error) {
	where, args := attendanceRangeWhere(rng)
	query := fmt.Sprintf(`SELECT student_id,
        COUNT(*) FILTER (WHERE status = 'present') AS present,
        COUNT(*) FILTER (WHERE status = 'late') AS late,
        COUNT(*) FILTER (WHERE status = 'leave') AS leave,
        COUNT(*) FILTER (WHERE status = 'absent') AS absent,
        COUNT(*) AS total,
        COALESCE(string_agg(DISTINCT marked_by_name, ', '), '') AS marked_by
        FROM attendance WHERE %s GROUP BY student_id`, where)
	var totals []AttendanceTotals
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("attendance totals: %w", err)
	}
	return totals, nil
}

// DistinctDates counts the class days recorded within the range.
func (r *AttendanceRepository) DistinctDates(ctx context.Context, rng models.AttendanceRange) (int, error) {
	where, args := attendanceRangeWhere(rng)
	query := fmt.Sprintf("SELECT COUNT(DISTINCT date) FROM attendance WHERE %s", where)
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count class days: %w", err)
	}
	return count, nil
}

// AbsenceTotals returns students with at least minAbsent absences in the range.
func (r *AttendanceRepository) AbsenceTotals(ctx context.Context, rng models.AttendanceRange, minAbsent int) ([]AbsenceTotals, error) {
	absent := models.AttendanceStatusAbsent
	rng.Status = &absent
	where, args := attendanceRangeWhere(rng)
	args = append(args, minAbsent)
	query := fmt.Sprintf(`SELECT student_id, COUNT(*) AS absent_count, array_agg(date ORDER BY date) AS absent_dates
        FROM attendance WHERE %s GROUP BY student_id HAVING COUNT(*) >= $%d ORDER BY absent_count DESC`, where, len(args))
	var totals []AbsenceTotals
	if err := r.db.SelectContext(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("absence totals: %w", err)
	}
	return totals, nil
}
