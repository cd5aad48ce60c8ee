package models

import "time"

// ExamPlan holds the scheduled exam dates of a batch.
type ExamPlan struct {
	ID               string    `db:"id" json:"id"`
	Region           string    `db:"region" json:"region"`
	BatchNumber      string    `db:"batch_number" json:"batchNumber"`
	TheoryDate       *string   `db:"theory_date" json:"theoryDate"`
	PracticalDate    *string   `db:"practical_date" json:"practicalDate"`
	PresentationDate *string   `db:"presentation_date" json:"presentationDate"`
	CertificateDate  *string   `db:"certificate_date" json:"certificateDate"`
	UpdatedBy        string    `db:"updated_by" json:"updatedBy"`
	UpdatedByName    string    `db:"updated_by_name" json:"updatedByName"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// RegionMilestone holds region wide dates shared by every batch.
type RegionMilestone struct {
	ID                      string    `db:"id" json:"id"`
	Region                  string    `db:"region" json:"region"`
	ProjectInaugurationDate *string   `db:"project_inauguration_date" json:"projectInaugurationDate"`
	UpdatedBy               string    `db:"updated_by" json:"updatedBy"`
	UpdatedByName           string    `db:"updated_by_name" json:"updatedByName"`
	UpdatedAt               time.Time `db:"updated_at" json:"updatedAt"`
}

// ExamPlanView merges a batch plan with its region milestone.
type ExamPlanView struct {
	Region                  string     `json:"region"`
	BatchNumber             string     `json:"batchNumber"`
	ProjectInaugurationDate *string    `json:"projectInaugurationDate"`
	TheoryDate              *string    `json:"theoryDate"`
	PracticalDate           *string    `json:"practicalDate"`
	PresentationDate        *string    `json:"presentationDate"`
	CertificateDate         *string    `json:"certificateDate"`
	UpdatedByName           *string    `json:"updatedByName"`
	UpdatedAt               *time.Time `json:"updatedAt"`
}
