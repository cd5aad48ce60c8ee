package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusLeave   AttendanceStatus = "leave"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusLeave:
		return true
	default:
		return false
	}
}

// CountsAsPresent reports whether the status belongs to the presence category.
func (s AttendanceStatus) CountsAsPresent() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusLate || s == AttendanceStatusLeave
}

// AttendanceRecord is the single mark for a student on a date.
type AttendanceRecord struct {
	ID           string            `db:"id" json:"id"`
	StudentID    string            `db:"student_id" json:"studentId"`
	StudentName  string            `db:"student_name" json:"studentName"`
	Region       string            `db:"region" json:"region"`
	SchoolName   string            `db:"school_name" json:"schoolName"`
	BatchNumber  string            `db:"batch_number" json:"batchNumber"`
	Date         string            `db:"date" json:"date"`
	Status       AttendanceStatus  `db:"status" json:"status"`
	Note         *string           `db:"note" json:"note,omitempty"`
	MarkedBy     string            `db:"marked_by" json:"markedBy"`
	MarkedByName string            `db:"marked_by_name" json:"markedByName"`
	MarkedAt     time.Time         `db:"marked_at" json:"markedAt"`
	History      AttendanceHistory `db:"history" json:"history"`
}

// AttendanceHistoryEntry captures a superseded mark.
type AttendanceHistoryEntry struct {
	Status       AttendanceStatus `json:"status"`
	Note         *string          `json:"note,omitempty"`
	MarkedBy     string           `json:"markedBy"`
	MarkedByName string           `json:"markedByName"`
	MarkedAt     time.Time        `json:"markedAt"`
}

// AttendanceHistory is stored as a JSONB array, newest entry first.
type AttendanceHistory []AttendanceHistoryEntry

// Value marshals the history for persistence.
func (h AttendanceHistory) Value() (driver.Value, error) {
	if h == nil {
		h = AttendanceHistory{}
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil, fmt.Errorf("marshal attendance history: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (h *AttendanceHistory) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*h = AttendanceHistory{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for AttendanceHistory", value)
	}
	if len(data) == 0 {
		*h = AttendanceHistory{}
		return nil
	}
	if err := json.Unmarshal(data, h); err != nil {
		return fmt.Errorf("unmarshal attendance history: %w", err)
	}
	return nil
}

// AttendanceMark is a single validated write request for one student.
type AttendanceMark struct {
	Student      User
	Date         string
	Status       AttendanceStatus
	Note         *string
	MarkedBy     string
	MarkedByName string
	MarkedAt     time.Time
}

// MarkWriteResult is the outcome of a conditional attendance write.
type MarkWriteResult struct {
	Written  bool
	Inserted bool
	// Existing holds the stored record when the write was rejected.
	Existing *AttendanceRecord
}

// AttendanceConflict reports a pair owned by another marker.
type AttendanceConflict struct {
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName"`
	MarkedBy    string           `json:"markedBy"`
	Status      AttendanceStatus `json:"status"`
}

// ItemFailure reports a per-item error inside a batch.
type ItemFailure struct {
	StudentID string `json:"studentId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// MarkCounts tallies a batch outcome.
type MarkCounts struct {
	Successful int `json:"successful"`
	Errors     int `json:"errors"`
}

// MarkAttendanceResult is the batch response of the attendance marker.
type MarkAttendanceResult struct {
	Results   MarkCounts           `json:"results"`
	Conflicts []AttendanceConflict `json:"conflicts,omitempty"`
	Failures  []ItemFailure        `json:"failures,omitempty"`
	Warning   string               `json:"warning,omitempty"`
}

// AttendanceRange scopes attendance lookups by batch and period.
type AttendanceRange struct {
	Region      string
	BatchNumber string
	StudentIDs  []string
	StartDate   string
	EndDate     string
	Status      *AttendanceStatus
}

// UndoAttendanceParams scopes a removal of the caller's own marks.
type UndoAttendanceParams struct {
	Region      string
	BatchNumber string
	Date        string
	StudentIDs  []string
	MarkedBy    string
}

// BatchStudentAttendance is one row of the daily roster view.
type BatchStudentAttendance struct {
	StudentID        string             `json:"studentId"`
	Name             string             `json:"name"`
	SchoolName       string             `json:"schoolName"`
	BatchNumber      string             `json:"batchNumber"`
	Mobile           string             `json:"mobile"`
	Standard         string             `json:"standard"`
	IsActive         bool               `json:"isActive"`
	Attendance       *AttendanceRecord  `json:"attendance,omitempty"`
	PreviousDay      *AttendanceStatus  `json:"previousDay,omitempty"`
	PreviousTwoDays  *AttendanceStatus  `json:"previousTwoDays,omitempty"`
	RecentAttendance []RecentAttendance `json:"recentAttendance"`
	PlannedAbsence   *PlannedAbsence    `json:"plannedAbsence,omitempty"`
}

// RecentAttendance is a compact record used in roster views.
type RecentAttendance struct {
	Date   string           `json:"date"`
	Status AttendanceStatus `json:"status"`
	Note   *string          `json:"note,omitempty"`
}
