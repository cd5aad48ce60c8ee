package service

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
)

const (
	defaultMinAbsent      = 3
	defaultWindowDays     = 30
	minEngagementDays     = 7
	engagementLeaderboard = 10
)

// AttendanceAggregates is the read side used for rollups.
type AttendanceAggregates interface {
	StudentTotals(ctx context.Context, rng models.AttendanceRange) ([]repository.AttendanceTotals, error)
	DistinctDates(ctx context.Context, rng models.AttendanceRange) (int, error)
	AbsenceTotals(ctx context.Context, rng models.AttendanceRange, minAbsent int) ([]repository.AbsenceTotals, error)
}

// SummaryService computes attendance rollups and caches them until the next
// attendance write.
type SummaryService struct {
	attendance AttendanceAggregates
	students   studentLookup
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewSummaryService constructs the summary service.
func NewSummaryService(attendance AttendanceAggregates, students studentLookup, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SummaryService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{attendance: attendance, students: students, cache: cache, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// SummaryRequest holds the summary query string.
type SummaryRequest struct {
	Region      string `form:"region" validate:"required"`
	BatchNumber string `form:"batchNumber" validate:"required"`
	StartDate   string `form:"startDate" validate:"required"`
	EndDate     string `form:"endDate" validate:"required"`
	Status      string `form:"status" validate:"omitempty,oneof=all active inactive"`
	FilterType  string `form:"filterType"`
}

// LowAttendanceRequest holds the low attendance query string.
type LowAttendanceRequest struct {
	Region      string `form:"region" validate:"required"`
	BatchNumber string `form:"batchNumber"`
	MinAbsent   int    `form:"minAbsent"`
	Days        int    `form:"days"`
}

// EngagementRequest holds the engagement query string.
type EngagementRequest struct {
	Region      string `form:"region" validate:"required"`
	BatchNumber string `form:"batchNumber"`
	Days        int    `form:"days"`
}

// Summary returns per student counters for a batch over a period. The
// boolean reports whether the payload came from cache.
func (s *SummaryService) Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err)
	}
	start, end, err := parseDateRange("startDate", req.StartDate, "endDate", req.EndDate)
	if err != nil {
		return nil, false, err
	}
	status := strings.ToLower(req.Status)
	if status == "" {
		status = "all"
	}

	key := AttendanceCacheKey("summary", req.Region, req.BatchNumber, start, end, status, req.FilterType)
	var cached models.AttendanceSummary
	if s.fromCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	began := time.Now()
	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: status})
	if err != nil {
		return nil, false, internalError(err, "failed to load students")
	}
	summary := &models.AttendanceSummary{
		Students: make([]models.StudentAttendanceSummary, 0, len(students)),
		Stats: models.AttendanceSummaryStats{
			TotalStudents: len(students),
			DateRange:     models.DateRange{Start: start, End: end, FilterType: req.FilterType},
		},
	}
	if len(students) == 0 {
		return summary, false, nil
	}

	rng := models.AttendanceRange{StudentIDs: studentIDs(students), StartDate: start, EndDate: end}
	var (
		totals     []repository.AttendanceTotals
		classCount int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.attendance.StudentTotals(gctx, rng)
		return err
	})
	g.Go(func() error {
		var err error
		classCount, err = s.attendance.DistinctDates(gctx, rng)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, internalError(err, "failed to aggregate attendance")
	}
	s.metrics.ObserveDBQuery("attendance_summary", time.Since(began))

	byStudent := make(map[string]repository.AttendanceTotals, len(totals))
	for _, t := range totals {
		byStudent[t.StudentID] = t
	}
	for _, student := range students {
		t := byStudent[student.ID]
		present := t.Present + t.Late + t.Leave
		row := models.StudentAttendanceSummary{
			StudentID:      student.ID,
			Name:           student.Name,
			SchoolName:     student.SchoolName,
			BatchNumber:    student.BatchNumber,
			Standard:       student.Standard,
			Mobile:         student.Mobile,
			EnrollmentDate: formatDate(student.CreatedAt),
			IsActive:       student.IsActive,
			TotalClasses:   classCount,
			TotalMarked:    present + t.Absent,
			Present:        present,
			Late:           t.Late,
			Leave:          t.Leave,
			Absent:         t.Absent,
			MarkedBy:       t.MarkedBy,
			Percentage:     attendancePercentage(present, t.Absent),
		}
		summary.Students = append(summary.Students, row)
		summary.Stats.TotalPresent += present
		summary.Stats.TotalAbsent += t.Absent
	}
	summary.Stats.TotalClasses = classCount

	s.toCache(ctx, key, summary)
	return summary, false, nil
}

// LowAttendance lists active students with repeated absences in the last days.
func (s *SummaryService) LowAttendance(ctx context.Context, req LowAttendanceRequest) (*models.LowAttendanceReport, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err)
	}
	minAbsent := req.MinAbsent
	if minAbsent < 1 {
		if req.MinAbsent == 0 {
			minAbsent = defaultMinAbsent
		} else {
			minAbsent = 1
		}
	}
	days := clampDays(req.Days, 1)
	today := s.now().UTC()
	end := formatDate(today)
	start := addDays(end, -(days - 1))

	key := AttendanceCacheKey("low", req.Region, req.BatchNumber, strconv.Itoa(minAbsent), start, end)
	var cached models.LowAttendanceReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	totals, err := s.attendance.AbsenceTotals(ctx, models.AttendanceRange{Region: req.Region, BatchNumber: req.BatchNumber, StartDate: start, EndDate: end}, minAbsent)
	if err != nil {
		return nil, false, internalError(err, "failed to aggregate absences")
	}
	report := &models.LowAttendanceReport{StartDate: start, EndDate: end, MinAbsent: minAbsent, Days: days, Students: []models.LowAttendanceStudent{}}
	if len(totals) > 0 {
		ids := make([]string, 0, len(totals))
		for _, t := range totals {
			ids = append(ids, t.StudentID)
		}
		students, err := s.students.FindByIDs(ctx, ids)
		if err != nil {
			return nil, false, internalError(err, "failed to load students")
		}
		byID := make(map[string]models.User, len(students))
		for _, st := range students {
			byID[st.ID] = st
		}
		for _, t := range totals {
			st, ok := byID[t.StudentID]
			if !ok || st.Role != models.RoleStudent || !st.IsActive {
				continue
			}
			dates := []string(t.AbsentDates)
			if dates == nil {
				dates = []string{}
			}
			report.Students = append(report.Students, models.LowAttendanceStudent{
				StudentID:   st.ID,
				Name:        st.Name,
				SchoolName:  st.SchoolName,
				BatchNumber: st.BatchNumber,
				Mobile:      st.Mobile,
				AbsentCount: t.AbsentCount,
				AbsentDates: dates,
			})
		}
		sort.SliceStable(report.Students, func(i, j int) bool { return report.Students[i].Name < report.Students[j].Name })
	}

	s.toCache(ctx, key, report)
	return report, false, nil
}

// Engagement ranks students by their recent attendance rate and by the
// change against the previous window of the same length.
func (s *SummaryService) Engagement(ctx context.Context, req EngagementRequest) (*models.EngagementReport, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, validationError(err)
	}
	days := clampDays(req.Days, minEngagementDays)
	end := formatDate(s.now().UTC())
	recentStart := addDays(end, -(days - 1))
	previousEnd := addDays(recentStart, -1)
	previousStart := addDays(previousEnd, -(days - 1))

	key := AttendanceCacheKey("engagement", req.Region, req.BatchNumber, strconv.Itoa(days), end)
	var cached models.EngagementReport
	if s.fromCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	report := &models.EngagementReport{
		Days:          days,
		Recent:        models.EngagementWindow{Start: recentStart, End: end},
		Previous:      models.EngagementWindow{Start: previousStart, End: previousEnd},
		TopAttendance: []models.EngagementEntry{},
		MostImproved:  []models.EngagementEntry{},
	}
	students, err := s.students.List(ctx, models.StudentFilter{Region: req.Region, BatchNumber: req.BatchNumber, Status: "active"})
	if err != nil {
		return nil, false, internalError(err, "failed to load students")
	}
	if len(students) == 0 {
		return report, false, nil
	}

	ids := studentIDs(students)
	var recent, previous []repository.AttendanceTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recent, err = s.attendance.StudentTotals(gctx, models.AttendanceRange{BatchNumber: req.BatchNumber, StudentIDs: ids, StartDate: recentStart, EndDate: end})
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = s.attendance.StudentTotals(gctx, models.AttendanceRange{BatchNumber: req.BatchNumber, StudentIDs: ids, StartDate: previousStart, EndDate: previousEnd})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, false, internalError(err, "failed to aggregate engagement")
	}

	recentBy := totalsByStudent(recent)
	previousBy := totalsByStudent(previous)
	entries := make([]models.EngagementEntry, 0, len(students))
	for _, st := range students {
		r, p := recentBy[st.ID], previousBy[st.ID]
		recentRate, previousRate := presenceRate(r), presenceRate(p)
		entries = append(entries, models.EngagementEntry{
			StudentID:     st.ID,
			Name:          st.Name,
			BatchNumber:   st.BatchNumber,
			RecentRate:    roundTo2(recentRate * 100),
			PreviousRate:  roundTo2(previousRate * 100),
			Improvement:   roundTo2((recentRate - previousRate) * 100),
			RecentTotal:   r.Total,
			PreviousTotal: p.Total,
		})
	}

	for _, e := range entries {
		if e.RecentTotal > 0 {
			report.TopAttendance = append(report.TopAttendance, e)
		}
	}
	sort.SliceStable(report.TopAttendance, func(i, j int) bool { return report.TopAttendance[i].RecentRate > report.TopAttendance[j].RecentRate })
	report.TopAttendance = limitEntries(report.TopAttendance, engagementLeaderboard)

	for _, e := range entries {
		if e.RecentTotal > 0 && e.PreviousTotal > 0 {
			report.MostImproved = append(report.MostImproved, e)
		}
	}
	sort.SliceStable(report.MostImproved, func(i, j int) bool { return report.MostImproved[i].Improvement > report.MostImproved[j].Improvement })
	report.MostImproved = limitEntries(report.MostImproved, engagementLeaderboard)

	s.toCache(ctx, key, report)
	return report, false, nil
}

func (s *SummaryService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *SummaryService) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		s.logger.Warn("cache attendance rollup", zap.String("key", key), zap.Error(err))
	}
}

func clampDays(days, floor int) int {
	if days == 0 {
		days = defaultWindowDays
	}
	if days < floor {
		return floor
	}
	return days
}

func presenceRate(t repository.AttendanceTotals) float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Present+t.Late+t.Leave) / float64(t.Total)
}

func totalsByStudent(totals []repository.AttendanceTotals) map[string]repository.AttendanceTotals {
	out := make(map[string]repository.AttendanceTotals, len(totals))
	for _, t := range totals {
		out[t.StudentID] = t
	}
	return out
}

func limitEntries(entries []models.EngagementEntry, n int) []models.EngagementEntry {
	if len(entries) > n {
		return entries[:n]
	}
	return entries
}

func studentIDs(students []models.User) []string {
	ids := make([]string, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}
	return ids
}

