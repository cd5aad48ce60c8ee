package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const plannedAbsenceColumns = `id, student_id, student_name, region, school_name, batch_number, from_date, to_date, reason, status, created_by, created_by_name, cancelled_by, cancelled_at, merged_into, created_at, updated_at`

// PlannedAbsenceRepository persists planned absence intervals.
type PlannedAbsenceRepository struct {
	db *sqlx.DB
}

// NewPlannedAbsenceRepository constructs the repository.
func NewPlannedAbsenceRepository(db *sqlx.DB) *PlannedAbsenceRepository {
	return &PlannedAbsenceRepository{db: db}
}

// Merge records the interval for the student. Overlapping active ranges are
// folded into the earliest of them, which is widened to the union; the rest
// are cancelled and point at the survivor. Absent marks inside the final
// interval without a note receive the reason. The student row is locked for
// the duration so merges of one student are serialized.
func (r *PlannedAbsenceRepository) Merge(ctx context.Context, req models.PlannedAbsenceUpsert, now time.Time) (result *models.PlannedAbsenceMergeResult, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin planned absence tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var student models.User
	if err = tx.GetContext(ctx, &student, `SELECT `+userColumns+` FROM users WHERE id = $1 AND role = 'student' FOR UPDATE`, req.StudentID); err != nil {
		return nil, err
	}

	var overlapping []models.PlannedAbsence
	const overlapQuery = `SELECT ` + plannedAbsenceColumns + ` FROM planned_absences
WHERE student_id = $1 AND status = 'active' AND from_date <= $2 AND to_date >= $3
ORDER BY from_date ASC, created_at ASC FOR UPDATE`
	if err = tx.SelectContext(ctx, &overlapping, overlapQuery, req.StudentID, req.ToDate, req.FromDate); err != nil {
		return nil, fmt.Errorf("select overlapping planned absences: %w", err)
	}

	result = &models.PlannedAbsenceMergeResult{}
	if len(overlapping) == 0 {
		absence := models.PlannedAbsence{
			ID:            uuid.NewString(),
			StudentID:     student.ID,
			StudentName:   student.Name,
			Region:        student.Region,
			SchoolName:    student.SchoolName,
			BatchNumber:   student.BatchNumber,
			FromDate:      req.FromDate,
			ToDate:        req.ToDate,
			Reason:        req.Reason,
			Status:        models.PlannedAbsenceActive,
			CreatedBy:     req.CreatedBy,
			CreatedByName: req.CreatedByName,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		const insertQuery = `INSERT INTO planned_absences (id, student_id, student_name, region, school_name, batch_number, from_date, to_date, reason, status, created_by, created_by_name, created_at, updated_at)
VALUES (:id, :student_id, :student_name, :region, :school_name, :batch_number, :from_date, :to_date, :reason, :status, :created_by, :created_by_name, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, insertQuery, absence); err != nil {
			return nil, fmt.Errorf("insert planned absence: %w", err)
		}
		result.PlannedAbsence = absence
	} else {
		survivor := overlapping[0]
		survivor.FromDate, survivor.ToDate = models.UnionBounds(req.FromDate, req.ToDate, overlapping)
		survivor.Reason = req.Reason
		survivor.UpdatedAt = now
		const widenQuery = `UPDATE planned_absences SET from_date = $1, to_date = $2, reason = $3, updated_at = $4 WHERE id = $5`
		if _, err = tx.ExecContext(ctx, widenQuery, survivor.FromDate, survivor.ToDate, survivor.Reason, now, survivor.ID); err != nil {
			return nil, fmt.Errorf("widen planned absence: %w", err)
		}
		for _, absorbed := range overlapping[1:] {
			const absorbQuery = `UPDATE planned_absences SET status = 'cancelled', merged_into = $1, cancelled_by = $2, cancelled_at = $3, updated_at = $3 WHERE id = $4`
			if _, err = tx.ExecContext(ctx, absorbQuery, survivor.ID, req.CreatedBy, now, absorbed.ID); err != nil {
				return nil, fmt.Errorf("absorb planned absence: %w", err)
			}
			result.AbsorbedIDs = append(result.AbsorbedIDs, absorbed.ID)
		}
		result.PlannedAbsence = survivor
		result.Merged = true
	}

	final := result.PlannedAbsence
	const backfillQuery = `UPDATE attendance SET note = $1, updated_at = $2
WHERE student_id = $3 AND status = 'absent' AND date >= $4 AND date <= $5 AND (note IS NULL OR note = '')`
	res, err := tx.ExecContext(ctx, backfillQuery, final.Reason, now, final.StudentID, final.FromDate, final.ToDate)
	if err != nil {
		return nil, fmt.Errorf("backfill attendance notes: %w", err)
	}
	if affected, rowsErr := res.RowsAffected(); rowsErr == nil {
		result.AttendanceNotesUpdated = int(affected)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit planned absence: %w", err)
	}
	return result, nil
}

// ListActive returns active ranges matching the filter.
func (r *PlannedAbsenceRepository) ListActive(ctx context.Context, filter models.PlannedAbsenceFilter) ([]models.PlannedAbsence, error) {
	conditions := []string{"status = 'active'"}
	var args []interface{}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(filter.BatchNumber) {
		args = append(args, filter.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("from_date <= $%d AND to_date >= $%d", len(args), len(args)))
	} else if filter.StartDate != "" && filter.EndDate != "" {
		args = append(args, filter.EndDate, filter.StartDate)
		conditions = append(conditions, fmt.Sprintf("from_date <= $%d AND to_date >= $%d", len(args)-1, len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM planned_absences WHERE %s ORDER BY from_date ASC, student_name ASC", plannedAbsenceColumns, strings.Join(conditions, " AND "))
	var absences []models.PlannedAbsence
	if err := r.db.SelectContext(ctx, &absences, query, args...); err != nil {
		return nil, fmt.Errorf("list planned absences: %w", err)
	}
	return absences, nil
}

// Cancel moves an active range to cancelled. A range that is missing or
// already cancelled yields sql.ErrNoRows.
func (r *PlannedAbsenceRepository) Cancel(ctx context.Context, id, cancelledBy string, now time.Time) (*models.PlannedAbsence, error) {
	query := `UPDATE planned_absences SET status = 'cancelled', cancelled_by = $2, cancelled_at = $3, updated_at = $3
WHERE id = $1 AND status = 'active' RETURNING ` + plannedAbsenceColumns
	var absence models.PlannedAbsence
	if err := r.db.GetContext(ctx, &absence, query, id, cancelledBy, now); err != nil {
		return nil, err
	}
	return &absence, nil
}
