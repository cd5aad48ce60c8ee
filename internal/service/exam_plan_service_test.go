package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type examPlanStore struct {
	plans      map[string]*models.ExamPlan
	milestones map[string]*models.RegionMilestone
	err        error
	savedPlan  *models.ExamPlan
	savedMilestone*models.RegionMilestone
}

func newExamPlanStore() *examPlanStore {
	return &examPlanStore{plans: map[string]*models.ExamPlan{}, milestones: map[string]*models.RegionMilestone{}}
}

func (m *examPlanStore) GetPlan(ctx context.Context, region, batchNumber string) (*models.ExamPlan, error) {
	return m.plans[region+"|"+batchNumber], m.err
}

func (m *examPlanStore) GetMilestone(ctx context.Context, region string) (*models.RegionMilestone, error) {
	return m.milestones[region], m.err
}

func (m *examPlanStore) Save(ctx context.Context, milestone *models.RegionMilestone, plan *models.ExamPlan) error {
	m.savedMilestone, m.savedPlan = milestone, plan
	return nil
}

func TestExamPlanGetMergesMilestone(t *testing.T) {
	store := newExamPlanStore()
	store.milestones["north"] = &models.RegionMilestone{ID: "m1", Region: "north", ProjectInaugurationDate: strPtr("2024-01-15"), UpdatedByName: "Root", UpdatedAt: fixedNow}
	store.plans["north|B1"] = &models.ExamPlan{Region: "north", BatchNumber: "B1", TheoryDate: strPtr("2024-04-01"), UpdatedByName: "Asha", UpdatedAt: fixedNow}
	svc := NewExamPlanService(store, nil)

	view, err := svc.Get(context.Background(), ExamPlanQuery{Region: "north", BatchNumber: "B1"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", *view.ProjectInaugurationDate)
	assert.Equal(t, "2024-04-01", *view.TheoryDate)
	assert.Nil(t, view.PracticalDate)
	assert.Equal(t, "Asha", *view.UpdatedByName)

	view, err = svc.Get(context.Background(), ExamPlanQuery{Region: "north"})
	require.NoError(t, err)
	assert.Nil(t, view.TheoryDate)
	assert.Equal(t, "Root", *view.UpdatedByName)

	_, err = svc.Get(context.Background(), ExamPlanQuery{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	store.err = errors.New("db down")
	_, err = svc.Get(context.Background(), ExamPlanQuery{Region: "north", BatchNumber: "B1"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestExamPlanSaveNullsInvalidDatesAndKeepsInauguration(t *testing.T) {
	store := newExamPlanStore()
	store.milestones["north"] = &models.RegionMilestone{ID: "m1", Region: "north", ProjectInaugurationDate: strPtr("2024-01-15")}
	svc := NewExamPlanService(store, nil)
	svc.now = fixedClock

	view, err := svc.Save(context.Background(), teacherActor, SaveExamPlanRequest{
		Region: "north", BatchNumber: "B1", TheoryDate: "2024-04-01T00:00:00.000Z", PracticalDate: "soon", PresentationDate: "2024-02-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", store.savedMilestone.ID)
	assert.Equal(t, "2024-01-15", *store.savedMilestone.ProjectInaugurationDate)
	assert.Equal(t, "2024-04-01", *store.savedPlan.TheoryDate)
	assert.Nil(t, store.savedPlan.PracticalDate)
	assert.Nil(t, store.savedPlan.PresentationDate)
	assert.Equal(t, "Asha", *view.UpdatedByName)
	assert.Equal(t, fixedNow, *view.UpdatedAt)

	_, err = svc.Save(context.Background(), teacherActor, SaveExamPlanRequest{Region: "north"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
