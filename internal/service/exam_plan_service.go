package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type examPlanRepository interface {
	GetPlan(ctx context.Context, region, batchNumber string) (*models.ExamPlan, error)
	GetMilestone(ctx context.Context, region string) (*models.RegionMilestone, error)
	Save(ctx context.Context, milestone *models.RegionMilestone, plan *models.ExamPlan) error
}

// ExamPlanQuery selects a region and, optionally, one of its batches.
type ExamPlanQuery struct {
	Region      string `form:"region"`
	BatchNumber string `form:"batchNumber"`
}

// SaveExamPlanRequest is the payload of PUT /exam-plan. Dates that are not
// YYYY-MM-DD are stored as null.
type SaveExamPlanRequest struct {
	Region                  string `json:"region"`
	BatchNumber             string `json:"batchNumber"`
	ProjectInaugurationDate string `json:"projectInaugurationDate"`
	TheoryDate              string `json:"theoryDate"`
	PracticalDate           string `json:"practicalDate"`
	PresentationDate        string `json:"presentationDate"`
	CertificateDate         string `json:"certificateDate"`
}

// ExamPlanService reads and writes batch exam dates and region milestones.
type ExamPlanService struct {
	repo   examPlanRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewExamPlanService constructs the service.
func NewExamPlanService(repo examPlanRepository, logger *zap.Logger) *ExamPlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamPlanService{repo: repo, logger: logger, now: time.Now}
}

// Get merges the batch plan, when a batch is given, with the region milestone.
func (s *ExamPlanService) Get(ctx context.Context, req ExamPlanQuery) (*models.ExamPlanView, error) {
	region := strings.TrimSpace(req.Region)
	batch := strings.TrimSpace(req.BatchNumber)
	if region == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "region is required")
	}

	var plan *models.ExamPlan
	var milestone *models.RegionMilestone
	g, gctx := errgroup.WithContext(ctx)
	if batch != "" {
		g.Go(func() (err error) {
			plan, err = s.repo.GetPlan(gctx, region, batch)
			return err
		})
	}
	g.Go(func() (err error) {
		milestone, err = s.repo.GetMilestone(gctx, region)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, internalError(err, "failed to load exam plan")
	}
	return mergeExamPlan(region, batch, plan, milestone), nil
}

// Save upserts the batch plan and the region milestone together. A missing
// inauguration date keeps the stored one.
func (s *ExamPlanService) Save(ctx context.Context, actor models.Principal, req SaveExamPlanRequest) (*models.ExamPlanView, error) {
	region := strings.TrimSpace(req.Region)
	batch := strings.TrimSpace(req.BatchNumber)
	if region == "" || batch == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "region and batchNumber are required")
	}

	existing, err := s.repo.GetMilestone(ctx, region)
	if err != nil {
		return nil, internalError(err, "failed to load region milestone")
	}
	now := s.now().UTC()
	milestone := &models.RegionMilestone{
		Region:                  region,
		ProjectInaugurationDate: normalizeOptionalDate(req.ProjectInaugurationDate),
		UpdatedBy:               actor.ID,
		UpdatedByName:           actor.Name,
		UpdatedAt:               now,
	}
	if existing != nil {
		milestone.ID = existing.ID
		if milestone.ProjectInaugurationDate == nil {
			milestone.ProjectInaugurationDate = existing.ProjectInaugurationDate
		}
	}
	plan := &models.ExamPlan{
		Region:           region,
		BatchNumber:      batch,
		TheoryDate:       normalizeOptionalDate(req.TheoryDate),
		PracticalDate:    normalizeOptionalDate(req.PracticalDate),
		PresentationDate: normalizeOptionalDate(req.PresentationDate),
		CertificateDate:  normalizeOptionalDate(req.CertificateDate),
		UpdatedBy:        actor.ID,
		UpdatedByName:    actor.Name,
		UpdatedAt:        now,
	}
	if err := s.repo.Save(ctx, milestone, plan); err != nil {
		return nil, internalError(err, "failed to save exam plan")
	}
	return mergeExamPlan(region, batch, plan, milestone), nil
}

func mergeExamPlan(region, batch string, plan *models.ExamPlan, milestone *models.RegionMilestone) *models.ExamPlanView {
	view := &models.ExamPlanView{Region: region, BatchNumber: batch}
	if milestone != nil {
		view.ProjectInaugurationDate = milestone.ProjectInaugurationDate
		name, at := milestone.UpdatedByName, milestone.UpdatedAt
		view.UpdatedByName, view.UpdatedAt = &name, &at
	}
	if plan != nil {
		view.TheoryDate = plan.TheoryDate
		view.PracticalDate = plan.PracticalDate
		view.PresentationDate = plan.PresentationDate
		view.CertificateDate = plan.CertificateDate
		name, at := plan.UpdatedByName, plan.UpdatedAt
		view.UpdatedByName, view.UpdatedAt = &name, &at
	}
	return view
}

func normalizeOptionalDate(v string) *string {
	date, ok := NormalizeDate(v)
	if !ok {
		return nil
	}
	return &date
}
