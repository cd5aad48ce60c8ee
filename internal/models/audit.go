package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Audit actions recorded by the service.
const (
	AuditActionAttendanceMark        = "attendance_mark"
	AuditActionAttendanceUndo        = "attendance_undo"
	AuditActionPlannedAbsenceCreate  = "planned_absence_create"
	AuditActionPlannedAbsenceMerge   = "planned_absence_merge"
	AuditActionPlannedAbsenceCancel  = "planned_absence_cancel"
	AuditActionStudentContact        = "student_contact"
	AuditActionStudentCreate         = "student_create"
	AuditActionStudentUpdate         = "student_update"
	AuditActionStudentDelete         = "student_delete"
	AuditActionUserCreate            = "user_create"
	AuditActionUserDelete            = "user_delete"
	AuditActionMarksSave             = "marks_save"
	AuditActionExamAttendanceSave    = "exam_attendance_save"
	AuditActionPresentationSave      = "presentation_save"
	AuditActionPresentationEvaluate  = "presentation_evaluate"
	AuditActionPresentationLock      = "presentation_lock"
	AuditActionExamPlanUpdate        = "exam_plan_update"
	AuditActionWorkReportSave        = "work_report_save"
	AuditActionWorkReportDelete      = "work_report_delete"
	AuditActionAttendanceReportQueue = "attendance_report_queue"
)

// AuditLog represents an append-only audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	ActorID   *string   `db:"actor_id" json:"actorId,omitempty"`
	ActorName string    `db:"actor_name" json:"actorName"`
	Action    string    `db:"action" json:"action"`
	Entity    string    `db:"entity" json:"entity"`
	EntityID  *string   `db:"entity_id" json:"entityId,omitempty"`
	Before    RawJSON   `db:"before" json:"before,omitempty"`
	After     RawJSON   `db:"after" json:"after,omitempty"`
	Meta      RawJSON   `db:"meta" json:"meta,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// AuditEntry is what callers hand to the audit writer. Before, After and
// Meta are marshalled to JSON when persisted.
type AuditEntry struct {
	ActorID   string
	ActorName string
	Action    string
	Entity    string
	EntityID  string
	Before    interface{}
	After     interface{}
	Meta      map[string]interface{}
}

// AuditLogFilter scopes audit log listing.
type AuditLogFilter struct {
	Action   string
	Entity   string
	ActorID  string
	Page     int
	PageSize int
}

// RawJSON is a nullable JSONB column passed through verbatim.
type RawJSON []byte

// Value implements driver.Valuer.
func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return []byte(r), nil
}

// Scan implements sql.Scanner.
func (r *RawJSON) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("unsupported type %T for RawJSON", value)
	}
	return nil
}

// MarshalJSON emits the stored document or null.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the raw document.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}
