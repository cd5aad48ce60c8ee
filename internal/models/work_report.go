package models

import "time"

// WorkReport is a teacher's daily teaching log for a batch.
type WorkReport struct {
	ID              string    `db:"id" json:"id"`
	TeacherID       string    `db:"teacher_id" json:"teacherId"`
	TeacherName     string    `db:"teacher_name" json:"teacherName"`
	Date            string    `db:"date" json:"date"`
	Region          string    `db:"region" json:"region"`
	BatchNumber     string    `db:"batch_number" json:"batchNumber"`
	Subject         string    `db:"subject" json:"subject"`
	TopicsCovered   string    `db:"topics_covered" json:"topicsCovered"`
	Assignment      string    `db:"assignment" json:"assignment"`
	AttendanceCount int       `db:"attendance_count" json:"attendanceCount"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// WorkReportFilter scopes a teacher's own reports.
type WorkReportFilter struct {
	TeacherID   string
	Date        string
	Region      string
	BatchNumber string
}
