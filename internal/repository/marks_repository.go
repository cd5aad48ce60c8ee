package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

const marksColumns = `id, student_id, student_name, region, school_name, batch_number, date, theory, practical, presentation, total_marks, total_obtained, percentage, marked_by, marked_by_name, marked_at`

// MarksRepository persists exam score sheets.
type MarksRepository struct {
	db *sqlx.DB
}

// NewMarksRepository constructs the repository.
func NewMarksRepository(db *sqlx.DB) *MarksRepository {
	return &MarksRepository{db: db}
}

// MarkIfOwner upserts the sheet unless the pair belongs to another marker,
// in which case nothing is written and the stored sheet is returned.
func (r *MarksRepository) MarkIfOwner(ctx context.Context, mark *models.Mark) (bool, *models.Mark, error) {
	if mark.ID == "" {
		mark.ID = uuid.NewString()
	}
	if mark.MarkedAt.IsZero() {
		mark.MarkedAt = time.Now().UTC()
	}
	const query = `INSERT INTO marks (id, student_id, student_name, region, school_name, batch_number, date, theory, practical, presentation, total_marks, total_obtained, percentage, marked_by, marked_by_name, marked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (student_id, date) DO UPDATE SET
    theory = EXCLUDED.theory,
    practical = EXCLUDED.practical,
    presentation = EXCLUDED.presentation,
    total_marks = EXCLUDED.total_marks,
    total_obtained = EXCLUDED.total_obtained,
    percentage = EXCLUDED.percentage,
    marked_by_name = EXCLUDED.marked_by_name,
    marked_at = EXCLUDED.marked_at
WHERE marks.marked_by = EXCLUDED.marked_by
RETURNING id`

	var id string
	err := r.db.QueryRowxContext(ctx, query,
		mark.ID, mark.StudentID, mark.StudentName, mark.Region, mark.SchoolName, mark.BatchNumber, mark.Date,
		mark.Theory, mark.Practical, mark.Presentation, mark.TotalMarks, mark.TotalObtained, mark.Percentage,
		mark.MarkedBy, mark.MarkedByName, mark.MarkedAt,
	).Scan(&id)
	if err == nil {
		mark.ID = id
		return true, nil, nil
	}
	if err != sql.ErrNoRows {
		return false, nil, fmt.Errorf("save marks: %w", err)
	}

	var existing models.Mark
	if err := r.db.GetContext(ctx, &existing, `SELECT `+marksColumns+` FROM marks WHERE student_id = $1 AND date = $2`, mark.StudentID, mark.Date); err != nil {
		return false, nil, fmt.Errorf("load conflicting marks: %w", err)
	}
	return false, &existing, nil
}

func marksScopeWhere(scope models.MarksScope) (string, []interface{}) {
	conditions := []string{"region = $1"}
	args := []interface{}{scope.Region}
	if !IsAllBatches(scope.BatchNumber) {
		args = append(args, scope.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if scope.StartDate != "" {
		args = append(args, scope.StartDate)
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)))
	}
	if scope.EndDate != "" {
		args = append(args, scope.EndDate)
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

// ListByScope returns sheets of a batch within the date window.
func (r *MarksRepository) ListByScope(ctx context.Context, scope models.MarksScope) ([]models.Mark, error) {
	where, args := marksScopeWhere(scope)
	query := fmt.Sprintf("SELECT %s FROM marks WHERE %s ORDER BY date DESC, student_name ASC", marksColumns, where)
	var marks []models.Mark
	if err := r.db.SelectContext(ctx, &marks, query, args...); err != nil {
		return nil, fmt.Errorf("list marks: %w", err)
	}
	return marks, nil
}

// LatestDate returns the most recent date on which the component was scored,
// or an empty string when it never was.
func (r *MarksRepository) LatestDate(ctx context.Context, scope models.MarksScope, component models.ExamComponent) (string, error) {
	column := map[models.ExamComponent]string{
		models.ComponentTheory:       "theory",
		models.ComponentPractical:    "practical",
		models.ComponentPresentation: "presentation",
	}[component]
	if column == "" {
		return "", fmt.Errorf("unknown exam component %q", component)
	}
	where, args := marksScopeWhere(scope)
	query := fmt.Sprintf("SELECT MAX(date) FROM marks WHERE %s AND %s IS NOT NULL", where, column)
	var latest sql.NullString
	if err := r.db.GetContext(ctx, &latest, query, args...); err != nil {
		return "", fmt.Errorf("latest %s date: %w", column, err)
	}
	return latest.String, nil
}

// Top returns the best scoring sheets for a date.
func (r *MarksRepository) Top(ctx context.Context, scope models.MarksScope, limit int) ([]models.TopScorer, error) {
	if limit <= 0 {
		limit = 3
	}
	conditions := []string{"date = $1"}
	args := []interface{}{scope.StartDate}
	if scope.Region != "" {
		args = append(args, scope.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(scope.BatchNumber) {
		args = append(args, scope.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT student_id, student_name, batch_number, region, total_marks, total_obtained, percentage
        FROM marks WHERE %s ORDER BY total_obtained DESC, student_name ASC LIMIT %d`, strings.Join(conditions, " AND "), limit)
	var top []models.TopScorer
	if err := r.db.SelectContext(ctx, &top, query, args...); err != nil {
		return nil, fmt.Errorf("top scorers: %w", err)
	}
	return top, nil
}
