package models

import "time"

// Component limits for a marks sheet.
const (
	MaxTheoryMarks       = 40.0
	MaxPracticalMarks    = 40.0
	MaxPresentationMarks = 20.0
	TotalMarks           = 100.0
)

// Mark is the exam score sheet of a student for a date. Components are
// optional until graded.
type Mark struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"studentId"`
	StudentName   string    `db:"student_name" json:"studentName"`
	Region        string    `db:"region" json:"region"`
	SchoolName    string    `db:"school_name" json:"schoolName"`
	BatchNumber   string    `db:"batch_number" json:"batchNumber"`
	Date          string    `db:"date" json:"date"`
	Theory        *float64  `db:"theory" json:"theory"`
	Practical     *float64  `db:"practical" json:"practical"`
	Presentation  *float64  `db:"presentation" json:"presentation"`
	TotalMarks    float64   `db:"total_marks" json:"totalMarks"`
	TotalObtained float64   `db:"total_obtained" json:"totalObtained"`
	Percentage    float64   `db:"percentage" json:"percentage"`
	MarkedBy      string    `db:"marked_by" json:"markedBy"`
	MarkedByName  string    `db:"marked_by_name" json:"markedByName"`
	MarkedAt      time.Time `db:"marked_at" json:"markedAt"`
}

// MarkConflict reports a marks sheet owned by another marker.
type MarkConflict struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	MarkedBy    string `json:"markedBy"`
	Date        string `json:"date"`
}

// MarkMarksResult is the batch response of a marks write.
type MarkMarksResult struct {
	Results   MarkCounts     `json:"results"`
	Conflicts []MarkConflict `json:"conflicts,omitempty"`
	Failures  []ItemFailure  `json:"failures,omitempty"`
	Warning   string         `json:"warning,omitempty"`
}

// BatchStudentMarks is a roster row with the stored sheet and a prefill
// suggestion for the presentation component.
type BatchStudentMarks struct {
	StudentID           string   `json:"studentId"`
	Name                string   `json:"name"`
	SchoolName          string   `json:"schoolName"`
	Standard            string   `json:"standard"`
	BatchNumber         string   `json:"batchNumber"`
	PresentationPrefill *float64 `json:"presentationPrefill"`
	Marks               *Mark    `json:"marks"`
}

// MissedExamMode selects which dates are inspected for missing components.
type MissedExamMode string

const (
	MissedModeSingle MissedExamMode = "single"
	MissedModePlan   MissedExamMode = "plan"
	MissedModeRange  MissedExamMode = "range"
	MissedModeLatest MissedExamMode = "latest"
)

// Valid returns true when the mode is supported.
func (m MissedExamMode) Valid() bool {
	switch m {
	case MissedModeSingle, MissedModePlan, MissedModeRange, MissedModeLatest:
		return true
	default:
		return false
	}
}

// MissedExamQuery holds the missed exam parameters.
type MissedExamQuery struct {
	Region           string
	BatchNumber      string
	Mode             MissedExamMode
	Date             string
	TheoryDate       string
	PracticalDate    string
	PresentationDate string
	StartDate        string
	EndDate          string
}

// MissedExamDates echoes the dates that were inspected.
type MissedExamDates struct {
	SingleDate       *string `json:"singleDate"`
	TheoryDate       *string `json:"theoryDate"`
	PracticalDate    *string `json:"practicalDate"`
	PresentationDate *string `json:"presentationDate"`
	StartDate        *string `json:"startDate"`
	EndDate          *string `json:"endDate"`
}

// MissedComponents flags the components a student has no score for.
type MissedComponents struct {
	Theory       bool `json:"theory"`
	Practical    bool `json:"practical"`
	Presentation bool `json:"presentation"`
}

// Any reports whether at least one component was missed.
func (m MissedComponents) Any() bool {
	return m.Theory || m.Practical || m.Presentation
}

// MissedExamStudent is a student missing at least one component.
type MissedExamStudent struct {
	StudentID   string           `json:"studentId"`
	Name        string           `json:"name"`
	BatchNumber string           `json:"batchNumber"`
	Missed      MissedComponents `json:"missed"`
}

// MissedExamReport is the missed exam endpoint payload.
type MissedExamReport struct {
	Mode      MissedExamMode      `json:"mode"`
	UsedDates MissedExamDates     `json:"usedDates"`
	Students  []MissedExamStudent `json:"students"`
}

// MarksScope scopes marks lookups by batch and date window.
type MarksScope struct {
	Region      string
	BatchNumber string
	StartDate   string
	EndDate     string
}

// ExamComponent names a graded component used when looking up latest dates.
type ExamComponent string

const (
	ComponentTheory       ExamComponent = "theory"
	ComponentPractical    ExamComponent = "practical"
	ComponentPresentation ExamComponent = "presentation"
)

// TopScorer is a compact leaderboard row.
type TopScorer struct {
	StudentID     string  `db:"student_id" json:"studentId"`
	StudentName   string  `db:"student_name" json:"studentName"`
	BatchNumber   string  `db:"batch_number" json:"batchNumber"`
	Region        string  `db:"region" json:"region"`
	TotalMarks    float64 `db:"total_marks" json:"totalMarks"`
	TotalObtained float64 `db:"total_obtained" json:"totalObtained"`
	Percentage    float64 `db:"percentage" json:"percentage"`
}

// ExamAttendance records whether a student sat an exam.
type ExamAttendance struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"studentId"`
	StudentName  string    `db:"student_name" json:"studentName"`
	Region       string    `db:"region" json:"region"`
	SchoolName   string    `db:"school_name" json:"schoolName"`
	BatchNumber  string    `db:"batch_number" json:"batchNumber"`
	Date         string    `db:"date" json:"date"`
	Appeared     bool      `db:"appeared" json:"appeared"`
	MarkedBy     string    `db:"marked_by" json:"markedBy"`
	MarkedByName string    `db:"marked_by_name" json:"markedByName"`
	MarkedAt     time.Time `db:"marked_at" json:"markedAt"`
}

// BatchExamAttendance is a roster row. Appeared is nil until recorded.
type BatchExamAttendance struct {
	StudentID   string     `json:"studentId"`
	Name        string     `json:"name"`
	BatchNumber string     `json:"batchNumber"`
	Appeared    *bool      `json:"appeared"`
	MarkedBy    *string    `json:"markedBy"`
	MarkedAt    *time.Time `json:"markedAt"`
}

// ExamAttendanceResult is the batch response of an exam attendance write.
type ExamAttendanceResult struct {
	Results   MarkCounts     `json:"results"`
	Conflicts []MarkConflict `json:"conflicts,omitempty"`
	Failures  []ItemFailure  `json:"failures,omitempty"`
}
