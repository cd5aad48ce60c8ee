package models

import "time"

// PlannedAbsenceStatus captures the lifecycle of a planned absence.
type PlannedAbsenceStatus string

const (
	PlannedAbsenceActive    PlannedAbsenceStatus = "active"
	PlannedAbsenceCancelled PlannedAbsenceStatus = "cancelled"
)

// PlannedAbsence is an announced absence interval for a student. Active
// ranges of the same student never overlap.
type PlannedAbsence struct {
	ID            string               `db:"id" json:"id"`
	StudentID     string               `db:"student_id" json:"studentId"`
	StudentName   string               `db:"student_name" json:"studentName"`
	Region        string               `db:"region" json:"region"`
	SchoolName    string               `db:"school_name" json:"schoolName"`
	BatchNumber   string               `db:"batch_number" json:"batchNumber"`
	FromDate      string               `db:"from_date" json:"fromDate"`
	ToDate        string               `db:"to_date" json:"toDate"`
	Reason        string               `db:"reason" json:"reason"`
	Status        PlannedAbsenceStatus `db:"status" json:"status"`
	CreatedBy     string               `db:"created_by" json:"createdBy"`
	CreatedByName string               `db:"created_by_name" json:"createdByName"`
	CancelledBy   *string              `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt   *time.Time           `db:"cancelled_at" json:"cancelledAt,omitempty"`
	MergedInto    *string              `db:"merged_into" json:"mergedInto,omitempty"`
	CreatedAt     time.Time            `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updatedAt"`
}

// Covers reports whether date falls inside the interval.
func (p PlannedAbsence) Covers(date string) bool {
	return p.FromDate <= date && date <= p.ToDate
}

// PlannedAbsenceFilter scopes the active range listing. Date selects ranges
// covering a day; StartDate and EndDate select ranges overlapping a period.
type PlannedAbsenceFilter struct {
	Region      string
	BatchNumber string
	StudentID   string
	Date        string
	StartDate   string
	EndDate     string
}

// PlannedAbsenceUpsert is a validated request to record an absence interval.
type PlannedAbsenceUpsert struct {
	StudentID     string
	FromDate      string
	ToDate        string
	Reason        string
	CreatedBy     string
	CreatedByName string
}

// PlannedAbsenceMergeResult describes the stored interval after a create.
type PlannedAbsenceMergeResult struct {
	PlannedAbsence         PlannedAbsence `json:"plannedAbsence"`
	Merged                 bool           `json:"merged"`
	AbsorbedIDs            []string       `json:"absorbedIds,omitempty"`
	AttendanceNotesUpdated int            `json:"attendanceNotesUpdated"`
}

// UnionBounds returns the smallest interval covering from..to and every range.
func UnionBounds(from, to string, ranges []PlannedAbsence) (string, string) {
	for _, r := range ranges {
		if r.FromDate < from {
			from = r.FromDate
		}
		if r.ToDate > to {
			to = r.ToDate
		}
	}
	return from, to
}
