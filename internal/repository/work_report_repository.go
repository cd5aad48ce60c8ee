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

const workReportColumns = `id, teacher_id, teacher_name, date, region, batch_number, subject, topics_covered, assignment, attendance_count, created_at, updated_at`

// WorkReportRepository persists teacher work reports.
type WorkReportRepository struct {
	db *sqlx.DB
}

// NewWorkReportRepository constructs the repository.
func NewWorkReportRepository(db *sqlx.DB) *WorkReportRepository {
	return &WorkReportRepository{db: db}
}

// Upsert stores the report keyed by teacher, date, region and batch.
func (r *WorkReportRepository) Upsert(ctx context.Context, report *models.WorkReport) (*models.WorkReport, error) {
	now := time.Now().UTC()
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = now
	}
	report.UpdatedAt = now
	query := `INSERT INTO work_reports (id, teacher_id, teacher_name, date, region, batch_number, subject, topics_covered, assignment, attendance_count, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (teacher_id, date, region, batch_number) DO UPDATE SET
    teacher_name = EXCLUDED.teacher_name,
    subject = EXCLUDED.subject,
    topics_covered = EXCLUDED.topics_covered,
    assignment = EXCLUDED.assignment,
    attendance_count = EXCLUDED.attendance_count,
    updated_at = EXCLUDED.updated_at
RETURNING ` + workReportColumns
	var stored models.WorkReport
	if err := r.db.GetContext(ctx, &stored, query,
		report.ID, report.TeacherID, report.TeacherName, report.Date, report.Region, report.BatchNumber,
		report.Subject, report.TopicsCovered, report.Assignment, report.AttendanceCount, report.CreatedAt, report.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert work report: %w", err)
	}
	return &stored, nil
}

// List returns the teacher's reports newest first.
func (r *WorkReportRepository) List(ctx context.Context, filter models.WorkReportFilter) ([]models.WorkReport, error) {
	conditions := []string{"teacher_id = $1"}
	args := []interface{}{filter.TeacherID}
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(filter.BatchNumber) {
		args = append(args, filter.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	query := fmt.Sprintf("SELECT %s FROM work_reports WHERE %s ORDER BY date DESC, created_at DESC", workReportColumns, strings.Join(conditions, " AND "))
	var reports []models.WorkReport
	if err := r.db.SelectContext(ctx, &reports, query, args...); err != nil {
		return nil, fmt.Errorf("list work reports: %w", err)
	}
	return reports, nil
}

// FindOwned returns a report belonging to the teacher.
func (r *WorkReportRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.WorkReport, error) {
	var report models.WorkReport
	if err := r.db.GetContext(ctx, &report, `SELECT `+workReportColumns+` FROM work_reports WHERE id = $1 AND teacher_id = $2`, id, teacherID); err != nil {
		return nil, err
	}
	return &report, nil
}

// DeleteOwned removes a report belonging to the teacher.
func (r *WorkReportRepository) DeleteOwned(ctx context.Context, id, teacherID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM work_reports WHERE id = $1 AND teacher_id = $2`, id, teacherID)
	if err != nil {
		return false, fmt.Errorf("delete work report: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete work report rows: %w", err)
	}
	return affected > 0, nil
}
