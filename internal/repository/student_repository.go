package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// StudentRepository answers roster queries over users with the student role.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// IsAllBatches reports whether a batch filter selects every batch.
func IsAllBatches(batch string) bool {
	batch = strings.TrimSpace(batch)
	return batch == "" || strings.EqualFold(batch, "all")
}

// List returns students matching the filter ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.User, error) {
	conditions := []string{"role = 'student'"}
	var args []interface{}

	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if filter.SchoolName != "" {
		args = append(args, filter.SchoolName)
		conditions = append(conditions, fmt.Sprintf("school_name = $%d", len(args)))
	}
	if !IsAllBatches(filter.BatchNumber) {
		args = append(args, filter.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	switch strings.ToLower(filter.Status) {
	case "all":
	case "inactive":
		conditions = append(conditions, "is_active = FALSE")
	default:
		conditions = append(conditions, "is_active = TRUE")
	}

	query := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY name ASC", userColumns, strings.Join(conditions, " AND "))
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND role = 'student'`
	var student models.User
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByIDs loads the students among ids. Unknown ids are silently skipped.
func (r *StudentRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) AND role = 'student'`
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find students by ids: %w", err)
	}
	return students, nil
}

// Regions returns distinct regions among active students.
func (r *StudentRepository) Regions(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT region FROM users WHERE role = 'student' AND is_active = TRUE AND region <> '' ORDER BY region`
	var regions []string
	if err := r.db.SelectContext(ctx, &regions, query); err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	return regions, nil
}

// Schools returns distinct school names, optionally within a region.
func (r *StudentRepository) Schools(ctx context.Context, region string) ([]string, error) {
	query := `SELECT DISTINCT school_name FROM users WHERE role = 'student' AND is_active = TRUE AND school_name <> ''`
	var args []interface{}
	if region != "" {
		query += " AND region = $1"
		args = append(args, region)
	}
	query += " ORDER BY school_name"
	var schools []string
	if err := r.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// Batches returns distinct batch numbers within a region.
func (r *StudentRepository) Batches(ctx context.Context, region string) ([]string, error) {
	const query = `SELECT DISTINCT batch_number FROM users WHERE role = 'student' AND is_active = TRUE AND region = $1 AND batch_number <> '' ORDER BY batch_number`
	var batches []string
	if err := r.db.SelectContext(ctx, &batches, query, region); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// Stats counts students by activity.
func (r *StudentRepository) Stats(ctx context.Context) (*models.StudentStats, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE is_active) AS active,
        COUNT(*) FILTER (WHERE NOT is_active) AS inactive
        FROM users WHERE role = 'student'`
	var stats models.StudentStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		if err == sql.ErrNoRows {
			return &models.StudentStats{}, nil
		}
		return nil, fmt.Errorf("student stats: %w", err)
	}
	return &stats, nil
}
