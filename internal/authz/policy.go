// Package authz holds the role policy evaluated before every protected route.
package authz

import (
	"sort"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// Operation names one protected action.
type Operation string

const (
	AttendanceMark        Operation = "attendance.mark"
	AttendanceByBatch     Operation = "attendance.by_batch"
	AttendanceUndo        Operation = "attendance.undo"
	AttendanceHistory     Operation = "attendance.history"
	AttendanceSummary     Operation = "attendance.summary"
	AttendanceLow         Operation = "attendance.low_attendance"
	AttendanceEngagement  Operation = "attendance.engagement"
	ContactLogCreate      Operation = "contact_log.create"
	ContactLogList        Operation = "contact_log.list"
	PlannedAbsenceCreate  Operation = "planned_absence.create"
	PlannedAbsenceList    Operation = "planned_absence.list"
	PlannedAbsenceCancel  Operation = "planned_absence.cancel"
	ReportCreate          Operation = "report.create"
	ReportStatus          Operation = "report.status"
	MarksMark             Operation = "marks.mark"
	MarksRead             Operation = "marks.read"
	ExamAttendanceMark    Operation = "exam_attendance.mark"
	ExamAttendanceRead    Operation = "exam_attendance.read"
	PresentationRead      Operation = "presentation.read"
	PresentationWrite     Operation = "presentation.write"
	StudentRead           Operation = "student.read"
	StudentWrite          Operation = "student.write"
	UserRead              Operation = "user.read"
	UserWrite             Operation = "user.write"
	WorkReportRead        Operation = "work_report.read"
	WorkReportWrite       Operation = "work_report.write"
	ExamPlanRead          Operation = "exam_plan.read"
	ExamPlanWrite         Operation = "exam_plan.write"
	AuditLogList          Operation = "audit_log.list"
	SystemMetrics         Operation = "metrics.system"
	TeacherDirectoryRead  Operation = "user.teachers"
	StudentDirectoryStats Operation = "student.stats"
)

var (
	adminOnly      = []models.UserRole{models.RoleAdmin}
	teacherOrAdmin = []models.UserRole{models.RoleTeacher, models.RoleAdmin}
)

// Policy maps operations to the roles allowed to perform them. Operations
// missing from the table are denied.
type Policy struct {
	rules map[Operation]map[models.UserRole]struct{}
}

// DefaultPolicy returns the access table served by the API.
func DefaultPolicy() *Policy {
	return NewPolicy(map[Operation][]models.UserRole{
		AttendanceMark:        teacherOrAdmin,
		AttendanceByBatch:     teacherOrAdmin,
		AttendanceUndo:        teacherOrAdmin,
		AttendanceHistory:     teacherOrAdmin,
		AttendanceSummary:     teacherOrAdmin,
		AttendanceLow:         teacherOrAdmin,
		AttendanceEngagement:  teacherOrAdmin,
		ContactLogCreate:      teacherOrAdmin,
		ContactLogList:        teacherOrAdmin,
		PlannedAbsenceCreate:  teacherOrAdmin,
		PlannedAbsenceList:    teacherOrAdmin,
		PlannedAbsenceCancel:  teacherOrAdmin,
		ReportCreate:          teacherOrAdmin,
		ReportStatus:          teacherOrAdmin,
		MarksMark:             teacherOrAdmin,
		MarksRead:             teacherOrAdmin,
		ExamAttendanceMark:    teacherOrAdmin,
		ExamAttendanceRead:    teacherOrAdmin,
		PresentationRead:      teacherOrAdmin,
		PresentationWrite:     teacherOrAdmin,
		StudentRead:           teacherOrAdmin,
		StudentDirectoryStats: teacherOrAdmin,
		StudentWrite:          adminOnly,
		UserRead:              adminOnly,
		UserWrite:             adminOnly,
		TeacherDirectoryRead:  teacherOrAdmin,
		WorkReportRead:        teacherOrAdmin,
		WorkReportWrite:       teacherOrAdmin,
		ExamPlanRead:          teacherOrAdmin,
		ExamPlanWrite:         teacherOrAdmin,
		AuditLogList:          adminOnly,
		SystemMetrics:         adminOnly,
	})
}

// NewPolicy builds a policy from an explicit table.
func NewPolicy(table map[Operation][]models.UserRole) *Policy {
	rules := make(map[Operation]map[models.UserRole]struct{}, len(table))
	for op, roles := range table {
		set := make(map[models.UserRole]struct{}, len(roles))
		for _, role := range roles {
			set[role] = struct{}{}
		}
		rules[op] = set
	}
	return &Policy{rules: rules}
}

// Allows reports whether role may perform op.
func (p *Policy) Allows(op Operation, role models.UserRole) bool {
	if p == nil {
		return false
	}
	roles, ok := p.rules[op]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Known reports whether op has an entry in the table.
func (p *Policy) Known(op Operation) bool {
	if p == nil {
		return false
	}
	_, ok := p.rules[op]
	return ok
}

// Operations lists every operation role may perform, sorted.
func (p *Policy) Operations(role models.UserRole) []Operation {
	if p == nil {
		return nil
	}
	var ops []Operation
	for op, roles := range p.rules {
		if _, ok := roles[role]; ok {
			ops = append(ops, op)
		}
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
