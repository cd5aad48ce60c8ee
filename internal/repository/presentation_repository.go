package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const presentationColumns = `id, student_id, student_name, region, school_name, batch_number, date, group_number, topic, presentation_marks,
evaluation_content, evaluation_design, evaluation_communication, evaluation_locked, marked_by, marked_by_name, marked_at`

// PresentationRepository persists presentation groups and their evaluation.
type PresentationRepository struct {
	db *sqlx.DB
}

// NewPresentationRepository constructs the repository.
func NewPresentationRepository(db *sqlx.DB) *PresentationRepository {
	return &PresentationRepository{db: db}
}

// ListByScope returns the assignments of a batch on a date.
func (r *PresentationRepository) ListByScope(ctx context.Context, scope models.PresentationScope) ([]models.Presentation, error) {
	query := `SELECT ` + presentationColumns + ` FROM presentations WHERE region = $1 AND batch_number = $2 AND date = $3 ORDER BY group_number ASC, student_name ASC`
	var rows []models.Presentation
	if err := r.db.SelectContext(ctx, &rows, query, scope.Region, scope.BatchNumber, scope.Date); err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	return rows, nil
}

// ListScored returns assignments within the window that carry marks or any
// evaluation criterion.
func (r *PresentationRepository) ListScored(ctx context.Context, scope models.MarksScope) ([]models.Presentation, error) {
	where, args := marksScopeWhere(scope)
	query := fmt.Sprintf(`SELECT %s FROM presentations WHERE %s AND (presentation_marks IS NOT NULL
        OR evaluation_content IS NOT NULL OR evaluation_design IS NOT NULL OR evaluation_communication IS NOT NULL)`, presentationColumns, where)
	var rows []models.Presentation
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scored presentations: %w", err)
	}
	return rows, nil
}

// LatestScoredDate returns the latest date with a scored presentation.
func (r *PresentationRepository) LatestScoredDate(ctx context.Context, scope models.MarksScope) (string, error) {
	where, args := marksScopeWhere(scope)
	query := fmt.Sprintf(`SELECT MAX(date) FROM presentations WHERE %s AND (presentation_marks IS NOT NULL
        OR evaluation_content IS NOT NULL OR evaluation_design IS NOT NULL OR evaluation_communication IS NOT NULL)`, where)
	var latest sql.NullString
	if err := r.db.GetContext(ctx, &latest, query, args...); err != nil {
		return "", fmt.Errorf("latest presentation date: %w", err)
	}
	return latest.String, nil
}

// AssignIfOwner places the student in a group unless another marker owns
// the pair, in which case the stored row is returned.
func (r *PresentationRepository) AssignIfOwner(ctx context.Context, p *models.Presentation) (bool, *models.Presentation, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.MarkedAt.IsZero() {
		p.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO presentations (id, student_id, student_name, region, school_name, batch_number, date, group_number, topic, marked_by, marked_by_name, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (student_id, date) DO UPDATE SET
    group_number = EXCLUDED.group_number,
    topic = EXCLUDED.topic,
    region = EXCLUDED.region,
    batch_number = EXCLUDED.batch_number,
    marked_by_name = EXCLUDED.marked_by_name,
    marked_at = EXCLUDED.marked_at
WHERE presentations.marked_by = EXCLUDED.marked_by
RETURNING id`
	var id string
	err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.StudentID, p.StudentName, p.Region, p.SchoolName, p.BatchNumber, p.Date,
		p.GroupNumber, p.Topic, p.MarkedBy, p.MarkedByName, p.MarkedAt,
	).Scan(&id)
	if err == nil {
		p.ID = id
		return true, nil, nil
	}
	if err != sql.ErrNoRows {
		return false, nil, fmt.Errorf("assign presentation: %w", err)
	}
	existing, err := r.FindByStudentDate(ctx, p.StudentID, p.Date)
	if err != nil {
		return false, nil, fmt.Errorf("load conflicting presentation: %w", err)
	}
	return false, existing, nil
}

// FindByStudentDate returns the assignment for a pair.
func (r *PresentationRepository) FindByStudentDate(ctx context.Context, studentID, date string) (*models.Presentation, error) {
	var p models.Presentation
	if err := r.db.GetContext(ctx, &p, `SELECT `+presentationColumns+` FROM presentations WHERE student_id = $1 AND date = $2`, studentID, date); err != nil {
		return nil, err
	}
	return &p, nil
}

// EvaluateIfOwner stores the criteria and derived marks on an unlocked row
// owned by markedBy. When nothing was updated the stored row, if any, is
// returned so the caller can tell a lock from a foreign owner.
func (r *PresentationRepository) EvaluateIfOwner(ctx context.Context, studentID, date, markedBy string, eval models.Evaluation, marks *float64, now time.Time) (bool, *models.Presentation, error) {
	const query = `UPDATE presentations SET evaluation_content = $1, evaluation_design = $2, evaluation_communication = $3,
presentation_marks = $4, marked_at = $5
WHERE student_id = $6 AND date = $7 AND marked_by = $8 AND evaluation_locked = FALSE`
	res, err := r.db.ExecContext(ctx, query, eval.Content, eval.Design, eval.Communication, marks, now, studentID, date, markedBy)
	if err != nil {
		return false, nil, fmt.Errorf("evaluate presentation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected > 0 {
		return true, nil, nil
	}
	existing, err := r.FindByStudentDate(ctx, studentID, date)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("load presentation: %w", err)
	}
	return false, existing, nil
}

// SetLocked toggles the evaluation lock on the listed students of a date.
func (r *PresentationRepository) SetLocked(ctx context.Context, date string, studentIDs []string, locked bool) (int64, error) {
	const query = `UPDATE presentations SET evaluation_locked = $1 WHERE date = $2 AND student_id = ANY($3)`
	return r.execAffected(ctx, "lock presentations", query, locked, date, pq.Array(studentIDs))
}

// UpdateTopic renames the topic of a group on the caller's rows.
func (r *PresentationRepository) UpdateTopic(ctx context.Context, scope models.PresentationScope, groupNumber int, topic, markedBy string) (int64, error) {
	const query = `UPDATE presentations SET topic = $1 WHERE region = $2 AND batch_number = $3 AND date = $4 AND group_number = $5 AND marked_by = $6`
	return r.execAffected(ctx, "update presentation topic", query, topic, scope.Region, scope.BatchNumber, scope.Date, groupNumber, markedBy)
}

// DeleteOwned removes the caller's assignments of the listed students on a date.
func (r *PresentationRepository) DeleteOwned(ctx context.Context, date string, studentIDs []string, markedBy string) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	conditions := []string{"date = $1", "student_id = ANY($2)", "marked_by = $3"}
	query := "DELETE FROM presentations WHERE " + strings.Join(conditions, " AND ")
	return r.execAffected(ctx, "unassign presentations", query, date, pq.Array(studentIDs), markedBy)
}

func (r *PresentationRepository) execAffected(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows: %w", op, err)
	}
	return affected, nil
}
