package models

import "time"

// Presentation group bounds and evaluation limits.
const (
	MinGroupSize          = 1
	MaxGroupSize          = 2
	MaxContentScore       = 10.0
	MaxDesignScore        = 5.0
	MaxCommunicationScore = 5.0
)

// Presentation assigns a student to a presentation group on a date.
type Presentation struct {
	ID                      string    `db:"id" json:"id"`
	StudentID               string    `db:"student_id" json:"studentId"`
	StudentName             string    `db:"student_name" json:"studentName"`
	Region                  string    `db:"region" json:"region"`
	SchoolName              string    `db:"school_name" json:"schoolName"`
	BatchNumber             string    `db:"batch_number" json:"batchNumber"`
	Date                    string    `db:"date" json:"date"`
	GroupNumber             int       `db:"group_number" json:"groupNumber"`
	Topic                   string    `db:"topic" json:"topic"`
	PresentationMarks       *float64  `db:"presentation_marks" json:"presentationMarks"`
	EvaluationContent       *float64  `db:"evaluation_content" json:"-"`
	EvaluationDesign        *float64  `db:"evaluation_design" json:"-"`
	EvaluationCommunication *float64  `db:"evaluation_communication" json:"-"`
	EvaluationLocked        bool      `db:"evaluation_locked" json:"evaluationLocked"`
	MarkedBy                string    `db:"marked_by" json:"markedBy"`
	MarkedByName            string    `db:"marked_by_name" json:"markedByName"`
	MarkedAt                time.Time `db:"marked_at" json:"markedAt"`
}

// Evaluation groups the per-criterion scores.
type Evaluation struct {
	Content       *float64 `json:"content"`
	Design        *float64 `json:"design"`
	Communication *float64 `json:"communication"`
}

// HasScore reports whether any criterion was scored.
func (e Evaluation) HasScore() bool {
	return e.Content != nil || e.Design != nil || e.Communication != nil
}

// Total returns the summed criteria clamped to the presentation maximum.
func (e Evaluation) Total() float64 {
	var sum float64
	for _, v := range []*float64{e.Content, e.Design, e.Communication} {
		if v != nil {
			sum += *v
		}
	}
	if sum < 0 {
		return 0
	}
	if sum > MaxPresentationMarks {
		return MaxPresentationMarks
	}
	return sum
}

// Evaluation returns the stored criteria.
func (p Presentation) Evaluation() Evaluation {
	return Evaluation{Content: p.EvaluationContent, Design: p.EvaluationDesign, Communication: p.EvaluationCommunication}
}

// PresentationView is the client facing shape of a presentation row.
type PresentationView struct {
	GroupNumber       int         `json:"groupNumber"`
	Topic             string      `json:"topic"`
	PresentationMarks *float64    `json:"presentationMarks"`
	Evaluation        *Evaluation `json:"evaluation"`
	EvaluationLocked  bool        `json:"evaluationLocked"`
	MarkedBy          string      `json:"markedBy"`
}

// BatchStudentPresentation is a roster row for the presentations page.
type BatchStudentPresentation struct {
	StudentID    string            `json:"studentId"`
	Name         string            `json:"name"`
	SchoolName   string            `json:"schoolName"`
	Standard     string            `json:"standard"`
	BatchNumber  string            `json:"batchNumber"`
	Presentation *PresentationView `json:"presentation"`
}

// BatchPresentations is the by-batch payload.
type BatchPresentations struct {
	Students    []BatchStudentPresentation `json:"students"`
	GroupTopics map[int]string             `json:"groupTopics"`
}

// PresentationScope identifies a batch session.
type PresentationScope struct {
	Region      string
	BatchNumber string
	Date        string
}

// PresentationSaveResult counts the outcome of a save.
type PresentationSaveResult struct {
	Upserted  int            `json:"upserted"`
	Deleted   int            `json:"deleted"`
	Skipped   int            `json:"skipped"`
	Conflicts []MarkConflict `json:"conflicts,omitempty"`
}

// PresentationEvaluateResult counts the outcome of an evaluation.
type PresentationEvaluateResult struct {
	Updated   int            `json:"updated"`
	Skipped   int            `json:"skipped"`
	Conflicts []MarkConflict `json:"conflicts,omitempty"`
}

// PresentationChange reports how many rows a bulk update touched.
type PresentationChange struct {
	Modified int64 `json:"modified"`
}
