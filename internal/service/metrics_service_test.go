package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest("GET", "/api/v1/attendance/summary", 200, 20*time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.ObserveDBQuery("attendance_totals", 4*time.Millisecond)
	m.RecordMarkOutcome("attendance", OutcomeWritten, 3)
	m.RecordMarkOutcome("attendance", OutcomeConflict, 1)
	m.RecordMarkOutcome("marks", OutcomeWritten, 5)

	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.RequestsTotal)
	assert.InDelta(t, 0.5, snap.CacheHitRatio, 0.0001)
	assert.EqualValues(t, 1, snap.DBQueryCount)
	assert.EqualValues(t, 3, snap.AttendanceMarksWritten)
	assert.EqualValues(t, 1, snap.AttendanceMarkConflicts)
	assert.Zero(t, snap.AttendanceMarkErrors)
	assert.InDelta(t, 20, snap.AverageRequestDurationMs, 0.001)
}

func TestMetricsServiceHandlerExposesCounters(t *testing.T) {
	m := NewMetricsService()
	m.RecordMarkOutcome("exam_attendance", OutcomeError, 2)
	m.RecordAuditDropped()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `mark_items_total{kind="exam_attendance",outcome="error"} 2`))
	assert.True(t, strings.Contains(body, "audit_entries_dropped_total 1"))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.RecordMarkOutcome("attendance", OutcomeWritten, 1)
	m.RecordAuditDropped()
	assert.Equal(t, http.StatusServiceUnavailable, func() int {
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		return rec.Code
	}())
	assert.Zero(t, m.Snapshot().RequestsTotal)
}

type queueStatsStub struct {
	name  string
	stats jobs.Stats
}

func (q queueStatsStub) Name() string      { return q.name }
func (q queueStatsStub) Stats() jobs.Stats { return q.stats }

func TestMetricsServiceWatchQueue(t *testing.T) {
	m := NewMetricsService()
	q := queueStatsStub{name: "audit", stats: jobs.Stats{Depth: 2, Processed: 7, Dropped: 1}}
	m.WatchQueue(q)
	m.WatchQueue(q)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `job_queue_depth{queue="audit"} 2`)
	assert.Contains(t, body, `job_queue_processed_total{queue="audit"} 7`)
	assert.Contains(t, body, `job_queue_dropped_total{queue="audit"} 1`)

	snap := m.Snapshot()
	require.Contains(t, snap.Queues, "audit")
	assert.EqualValues(t, 7, snap.Queues["audit"].Processed)
}
