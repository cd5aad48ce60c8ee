package models

import "time"

// StudentAttendanceSummary aggregates a student's marks over a period.
type StudentAttendanceSummary struct {
	StudentID      string  `json:"studentId"`
	Name           string  `json:"name"`
	SchoolName     string  `json:"schoolName"`
	BatchNumber    string  `json:"batchNumber"`
	Standard       string  `json:"standard"`
	Mobile         string  `json:"mobile"`
	EnrollmentDate string  `json:"enrollmentDate"`
	IsActive       bool    `json:"isActive"`
	TotalClasses   int     `json:"totalClasses"`
	TotalMarked    int     `json:"totalMarked"`
	Present        int     `json:"present"`
	Late           int     `json:"late"`
	Leave          int     `json:"leave"`
	Absent         int     `json:"absent"`
	MarkedBy       string  `json:"markedBy"`
	Percentage     float64 `json:"percentage"`
}

// DateRange echoes the requested period.
type DateRange struct {
	Start      string `json:"start"`
	End        string `json:"end"`
	FilterType string `json:"filterType,omitempty"`
}

// AttendanceSummaryStats are batch level totals.
type AttendanceSummaryStats struct {
	TotalClasses  int       `json:"totalClasses"`
	TotalStudents int       `json:"totalStudents"`
	TotalPresent  int       `json:"totalPresent"`
	TotalAbsent   int       `json:"totalAbsent"`
	DateRange     DateRange `json:"dateRange"`
}

// AttendanceSummary is the summary endpoint payload.
type AttendanceSummary struct {
	Students []StudentAttendanceSummary `json:"students"`
	Stats    AttendanceSummaryStats     `json:"stats"`
}

// SummaryQuery holds the summary parameters.
type SummaryQuery struct {
	Region      string
	BatchNumber string
	StartDate   string
	EndDate     string
	Status      string
	FilterType  string
}

// LowAttendanceStudent is a student at or above the absence threshold.
type LowAttendanceStudent struct {
	StudentID   string   `json:"studentId"`
	Name        string   `json:"name"`
	SchoolName  string   `json:"schoolName"`
	BatchNumber string   `json:"batchNumber"`
	Mobile      string   `json:"mobile"`
	AbsentCount int      `json:"absentCount"`
	AbsentDates []string `json:"absentDates"`
}

// LowAttendanceReport lists students with repeated absences.
type LowAttendanceReport struct {
	StartDate string                 `json:"startDate"`
	EndDate   string                 `json:"endDate"`
	MinAbsent int                    `json:"minAbsent"`
	Days      int                    `json:"days"`
	Students  []LowAttendanceStudent `json:"students"`
}

// LowAttendanceQuery holds the low attendance parameters.
type LowAttendanceQuery struct {
	Region      string
	BatchNumber string
	MinAbsent   int
	Days        int
}

// EngagementEntry scores a student across two adjacent windows.
type EngagementEntry struct {
	StudentID     string  `json:"studentId"`
	Name          string  `json:"name"`
	BatchNumber   string  `json:"batchNumber"`
	RecentRate    float64 `json:"recentRate"`
	PreviousRate  float64 `json:"previousRate"`
	Improvement   float64 `json:"improvement"`
	RecentTotal   int     `json:"recentTotal"`
	PreviousTotal int     `json:"previousTotal"`
}

// EngagementWindow describes an inclusive day range.
type EngagementWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// EngagementReport ranks students by attendance rate and improvement.
type EngagementReport struct {
	Days          int               `json:"days"`
	Recent        EngagementWindow  `json:"recent"`
	Previous      EngagementWindow  `json:"previous"`
	TopAttendance []EngagementEntry `json:"topAttendance"`
	MostImproved  []EngagementEntry `json:"mostImproved"`
}

// EngagementQuery holds the engagement parameters.
type EngagementQuery struct {
	Region      string
	BatchNumber string
	Days        int
}

// SystemMetrics represents process level metrics captured from instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64               `json:"cacheHitRatio"`
	CacheHits                uint64                `json:"cacheHits"`
	CacheMisses              uint64                `json:"cacheMisses"`
	RequestsTotal            uint64                `json:"requestsTotal"`
	AverageRequestDurationMs float64               `json:"averageRequestDurationMs"`
	DBQueryCount             uint64                `json:"dbQueryCount"`
	AverageDBQueryDurationMs float64               `json:"averageDbQueryDurationMs"`
	AttendanceMarksWritten   uint64                `json:"attendanceMarksWritten"`
	AttendanceMarkConflicts  uint64                `json:"attendanceMarkConflicts"`
	AttendanceMarkErrors     uint64                `json:"attendanceMarkErrors"`
	Goroutines               int                   `json:"goroutines"`
	Queues                   map[string]QueueStats `json:"queues,omitempty"`
	GeneratedAt              time.Time             `json:"generatedAt"`
}

// QueueStats describes one background job queue.
type QueueStats struct {
	Depth     int    `json:"depth"`
	Processed uint64 `json:"processed"`
	Failed    uint64 `json:"failed"`
	Retried   uint64 `json:"retried"`
	Dropped   uint64 `json:"dropped"`
}
