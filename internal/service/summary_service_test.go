package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type aggregateStore struct {
	mu         sync.Mutex
	totals     map[string][]repository.AttendanceTotals
	classCount int
	absences   []repository.AbsenceTotals
	ranges     []models.AttendanceRange
	minAbsent  int
	calls      int
}

func (m *aggregateStore) StudentTotals(ctx context.Context, rng models.AttendanceRange) ([]repository.AttendanceTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.ranges = append(m.ranges, rng)
	return m.totals[rng.StartDate], nil
}

func (m *aggregateStore) DistinctDates(ctx context.Context, rng models.AttendanceRange) (int, error) {
	return m.classCount, nil
}

func (m *aggregateStore) AbsenceTotals(ctx context.Context, rng models.AttendanceRange, minAbsent int) ([]repository.AbsenceTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.ranges = append(m.ranges, rng)
	m.minAbsent = minAbsent
	return m.absences, nil
}

func newSummaryFixture(students ...models.User) (*SummaryService, *aggregateStore, *memoryCache) {
	store := &aggregateStore{totals: map[string][]repository.AttendanceTotals{}}
	cache := newMemoryCache()
	svc := NewSummaryService(store, newStudentStore(students...), NewCacheService(cache, nil, time.Minute, nil, true), nil, nil, nil)
	svc.now = fixedClock
	return svc, store, cache
}

func TestSummaryComputesPercentages(t *testing.T) {
	ana := student("s1", "Ana", "B1")
	ana.CreatedAt = time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	svc, store, _ := newSummaryFixture(ana, student("s2", "Bo", "B1"))
	store.classCount = 4
	store.totals["2024-03-01"] = []repository.AttendanceTotals{
		{StudentID: "s1", Present: 1, Late: 1, Leave: 0, Absent: 1, Total: 3, MarkedBy: "Asha"},
	}

	summary, cached, err := svc.Summary(context.Background(), SummaryRequest{Region: "north", BatchNumber: "B1", StartDate: "2024-03-01", EndDate: "2024-03-10"})
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, summary.Students, 2)

	first := summary.Students[0]
	assert.Equal(t, 2, first.Present)
	assert.Equal(t, 1, first.Absent)
	assert.Equal(t, 3, first.TotalMarked)
	assert.Equal(t, 66.67, first.Percentage)
	assert.Equal(t, 4, first.TotalClasses)
	assert.Equal(t, "2023-09-01", first.EnrollmentDate)

	second := summary.Students[1]
	assert.Equal(t, 0.0, second.Percentage)
	assert.Equal(t, 0, second.TotalMarked)

	assert.Equal(t, 4, summary.Stats.TotalClasses)
	assert.Equal(t, 2, summary.Stats.TotalStudents)
	assert.Equal(t, 2, summary.Stats.TotalPresent)
	assert.Equal(t, 1, summary.Stats.TotalAbsent)
	assert.Equal(t, "2024-03-10", summary.Stats.DateRange.End)
}

func TestSummaryServedFromCacheUntilInvalidated(t *testing.T) {
	svc, store, cache := newSummaryFixture(student("s1", "Ana", "B1"))
	req := SummaryRequest{Region: "north", BatchNumber: "B1", StartDate: "2024-03-01", EndDate: "2024-03-10"}

	_, _, err := svc.Summary(context.Background(), req)
	require.NoError(t, err)
	_, cached, err := svc.Summary(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1, store.calls)

	require.NoError(t, cache.DeleteByPattern(context.Background(), AttendanceCachePattern))
	_, cached, err = svc.Summary(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, store.calls)
}

func TestSummaryValidation(t *testing.T) {
	svc, _, _ := newSummaryFixture()
	_, _, err := svc.Summary(context.Background(), SummaryRequest{Region: "north", StartDate: "2024-03-01", EndDate: "2024-03-10"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, _, err = svc.Summary(context.Background(), SummaryRequest{Region: "north", BatchNumber: "B1", StartDate: "2024-03-11", EndDate: "2024-03-10"})
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestLowAttendanceFiltersInactiveAndDefaults(t *testing.T) {
	inactive := student("s3", "Cy", "B1")
	inactive.IsActive = false
	svc, store, _ := newSummaryFixture(student("s1", "Zed", "B1"), student("s2", "Ana", "B1"), inactive)
	store.absences = []repository.AbsenceTotals{
		{StudentID: "s1", AbsentCount: 4, AbsentDates: []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}},
		{StudentID: "s2", AbsentCount: 3, AbsentDates: []string{"2024-03-05", "2024-03-06", "2024-03-07"}},
		{StudentID: "s3", AbsentCount: 3},
	}

	report, _, err := svc.LowAttendance(context.Background(), LowAttendanceRequest{Region: "north"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.minAbsent)
	assert.Equal(t, 30, report.Days)
	assert.Equal(t, "2024-02-10", report.StartDate)
	assert.Equal(t, "2024-03-10", report.EndDate)
	require.Len(t, report.Students, 2)
	assert.Equal(t, "Ana", report.Students[0].Name)
	assert.Equal(t, 4, report.Students[1].AbsentCount)
}

func TestLowAttendanceClampsParameters(t *testing.T) {
	svc, store, _ := newSummaryFixture()
	report, _, err := svc.LowAttendance(context.Background(), LowAttendanceRequest{Region: "north", MinAbsent: -2, Days: -4})
	require.NoError(t, err)
	assert.Equal(t, 1, store.minAbsent)
	assert.Equal(t, 1, report.Days)
	assert.Equal(t, report.StartDate, report.EndDate)
	assert.NotNil(t, report.Students)
}

func TestEngagementRanksStudents(t *testing.T) {
	svc, store, _ := newSummaryFixture(student("s1", "Ana", "B1"), student("s2", "Bo", "B1"), student("s3", "Cy", "B1"))
	store.totals["2024-03-04"] = []repository.AttendanceTotals{
		{StudentID: "s1", Present: 3, Absent: 1, Total: 4},
		{StudentID: "s2", Present: 4, Total: 4},
		{StudentID: "s3", Present: 1, Late: 1, Absent: 2, Total: 4},
	}
	store.totals["2024-02-26"] = []repository.AttendanceTotals{
		{StudentID: "s1", Present: 1, Absent: 3, Total: 4},
		{StudentID: "s2", Present: 4, Total: 4},
	}

	report, _, err := svc.Engagement(context.Background(), EngagementRequest{Region: "north", Days: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, report.Days)
	assert.Equal(t, models.EngagementWindow{Start: "2024-03-04", End: "2024-03-10"}, report.Recent)
	assert.Equal(t, models.EngagementWindow{Start: "2024-02-26", End: "2024-03-03"}, report.Previous)

	require.Len(t, report.TopAttendance, 3)
	assert.Equal(t, "s2", report.TopAttendance[0].StudentID)
	assert.Equal(t, 100.0, report.TopAttendance[0].RecentRate)
	assert.Equal(t, "s3", report.TopAttendance[2].StudentID)

	require.Len(t, report.MostImproved, 2)
	assert.Equal(t, "s1", report.MostImproved[0].StudentID)
	assert.Equal(t, 50.0, report.MostImproved[0].Improvement)
	assert.Equal(t, 0.0, report.MostImproved[1].Improvement)
}
