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

// ContactLogRepository persists teacher to student contact attempts.
type ContactLogRepository struct {
	db *sqlx.DB
}

// NewContactLogRepository constructs the repository.
func NewContactLogRepository(db *sqlx.DB) *ContactLogRepository {
	return &ContactLogRepository{db: db}
}

// Create inserts a contact entry.
func (r *ContactLogRepository) Create(ctx context.Context, entry *models.ContactLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO contact_logs (id, student_id, student_name, student_mobile, teacher_id, teacher_name, region, school_name, batch_number, standard, phone_dialed, source, created_at)
VALUES (:id, :student_id, :student_name, :student_mobile, :teacher_id, :teacher_name, :region, :school_name, :batch_number, :standard, :phone_dialed, :source, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create contact log: %w", err)
	}
	return nil
}

// List returns recent entries newest first.
func (r *ContactLogRepository) List(ctx context.Context, filter models.ContactLogFilter, limit int) ([]models.ContactLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("region = $%d", len(args)))
	}
	if !IsAllBatches(filter.BatchNumber) {
		args = append(args, filter.BatchNumber)
		conditions = append(conditions, fmt.Sprintf("batch_number = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT id, student_id, student_name, student_mobile, teacher_id, teacher_name, region, school_name, batch_number, standard, phone_dialed, source, created_at
        FROM contact_logs WHERE %s ORDER BY created_at DESC LIMIT %d`, strings.Join(conditions, " AND "), limit)
	var logs []models.ContactLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list contact logs: %w", err)
	}
	return logs, nil
}
