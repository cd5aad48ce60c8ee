package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// ExamPlanRepository persists batch exam plans and region milestones.
type ExamPlanRepository struct {
	db *sqlx.DB
}

// NewExamPlanRepository constructs the repository.
func NewExamPlanRepository(db *sqlx.DB) *ExamPlanRepository {
	return &ExamPlanRepository{db: db}
}

// GetPlan returns the plan of a batch or nil when none exists.
func (r *ExamPlanRepository) GetPlan(ctx context.Context, region, batchNumber string) (*models.ExamPlan, error) {
	const query = `SELECT id, region, batch_number, theory_date, practical_date, presentation_date, certificate_date, updated_by, updated_by_name, updated_at
FROM exam_plans WHERE region = $1 AND batch_number = $2`
	var plan models.ExamPlan
	if err := r.db.GetContext(ctx, &plan, query, region, batchNumber); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get exam plan: %w", err)
	}
	return &plan, nil
}

// GetMilestone returns the region milestone or nil when none exists.
func (r *ExamPlanRepository) GetMilestone(ctx context.Context, region string) (*models.RegionMilestone, error) {
	const query = `SELECT id, region, project_inauguration_date, updated_by, updated_by_name, updated_at FROM region_milestones WHERE region = $1`
	var milestone models.RegionMilestone
	if err := r.db.GetContext(ctx, &milestone, query, region); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get region milestone: %w", err)
	}
	return &milestone, nil
}

// Save upserts the milestone and, when a batch is given, the batch plan in
// one transaction.
func (r *ExamPlanRepository) Save(ctx context.Context, milestone *models.RegionMilestone, plan *models.ExamPlan) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam plan tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if milestone.ID == "" {
		milestone.ID = uuid.NewString()
	}
	const milestoneQuery = `INSERT INTO region_milestones (id, region, project_inauguration_date, updated_by, updated_by_name, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (region) DO UPDATE SET project_inauguration_date = EXCLUDED.project_inauguration_date,
    updated_by = EXCLUDED.updated_by, updated_by_name = EXCLUDED.updated_by_name, updated_at = EXCLUDED.updated_at`
	if _, err = tx.ExecContext(ctx, milestoneQuery, milestone.ID, milestone.Region, milestone.ProjectInaugurationDate,
		milestone.UpdatedBy, milestone.UpdatedByName, milestone.UpdatedAt); err != nil {
		return fmt.Errorf("save region milestone: %w", err)
	}

	if plan != nil {
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		const planQuery = `INSERT INTO exam_plans (id, region, batch_number, theory_date, practical_date, presentation_date, certificate_date, updated_by, updated_by_name, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (region, batch_number) DO UPDATE SET theory_date = EXCLUDED.theory_date, practical_date = EXCLUDED.practical_date,
    presentation_date = EXCLUDED.presentation_date, certificate_date = EXCLUDED.certificate_date,
    updated_by = EXCLUDED.updated_by, updated_by_name = EXCLUDED.updated_by_name, updated_at = EXCLUDED.updated_at`
		if _, err = tx.ExecContext(ctx, planQuery, plan.ID, plan.Region, plan.BatchNumber, plan.TheoryDate, plan.PracticalDate,
			plan.PresentationDate, plan.CertificateDate, plan.UpdatedBy, plan.UpdatedByName, plan.UpdatedAt); err != nil {
			return fmt.Errorf("save exam plan: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit exam plan: %w", err)
	}
	return nil
}
