package models

import "time"

// ContactLog records a teacher reaching out to a student.
type ContactLog struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"studentId"`
	StudentName   string    `db:"student_name" json:"studentName"`
	StudentMobile string    `db:"student_mobile" json:"studentMobile"`
	TeacherID     string    `db:"teacher_id" json:"teacherId"`
	TeacherName   string    `db:"teacher_name" json:"teacherName"`
	Region        string    `db:"region" json:"region"`
	SchoolName    string    `db:"school_name" json:"schoolName"`
	BatchNumber   string    `db:"batch_number" json:"batchNumber"`
	Standard      string    `db:"standard" json:"standard"`
	PhoneDialed   string    `db:"phone_dialed" json:"phoneDialed"`
	Source        string    `db:"source" json:"source"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ContactLogFilter scopes contact log listing.
type ContactLogFilter struct {
	Region      string
	BatchNumber string
	Since       time.Time
}

// ContactLogReport is the contact log listing payload.
type ContactLogReport struct {
	Days      int          `json:"days"`
	DateRange DateRange    `json:"dateRange"`
	Results   []ContactLog `json:"results"`
}
