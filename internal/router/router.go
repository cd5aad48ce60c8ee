// Package router binds handlers to routes behind authentication and the
// role policy.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// Handlers groups every HTTP handler served under the API prefix.
type Handlers struct {
	Auth           *handler.AuthHandler
	Attendance     *handler.AttendanceHandler
	PlannedAbsence *handler.PlannedAbsenceHandler
	Reports        *handler.ReportHandler
	Marks          *handler.MarksHandler
	Presentations  *handler.PresentationHandler
	Students       *handler.StudentHandler
	Users          *handler.UserHandler
	WorkReports    *handler.WorkReportHandler
	ExamPlan       *handler.ExamPlanHandler
	Audit          *handler.AuditHandler
	Metrics        *handler.MetricsHandler
}

// Dependencies are the cross-cutting collaborators of the API group.
type Dependencies struct {
	Auth   middleware.Authenticator
	Policy *authz.Policy
	Audit  middleware.AuditRecorder
}

// Register mounts the API under prefix. Every route except the signed
// report download requires a bearer token and a policy grant.
func Register(r gin.IRouter, prefix string, h Handlers, deps Dependencies) {
	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	if h.Reports != nil {
		api.GET("/attendance/reports/download/:token", h.Reports.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))
	allow := func(op authz.Operation) gin.HandlerFunc {
		return middleware.Authorize(deps.Policy, op)
	}

	secured.GET("/auth/me", h.Auth.Me)

	attendance := secured.Group("/attendance")
	attendance.POST("/mark", allow(authz.AttendanceMark), h.Attendance.Mark)
	attendance.GET("/by-batch", allow(authz.AttendanceByBatch), h.Attendance.ByBatch)
	attendance.POST("/undo", allow(authz.AttendanceUndo), h.Attendance.Undo)
	attendance.GET("/:id/history", allow(authz.AttendanceHistory), h.Attendance.History)
	attendance.GET("/summary", allow(authz.AttendanceSummary), h.Attendance.Summary)
	attendance.GET("/low-attendance", allow(authz.AttendanceLow), h.Attendance.LowAttendance)
	attendance.GET("/engagement", allow(authz.AttendanceEngagement), h.Attendance.Engagement)
	attendance.POST("/contact-log", allow(authz.ContactLogCreate), h.Attendance.LogContact)
	attendance.GET("/contact-log", allow(authz.ContactLogList), h.Attendance.ListContacts)
	attendance.POST("/planned-absences", allow(authz.PlannedAbsenceCreate), h.PlannedAbsence.Create)
	attendance.GET("/planned-absences", allow(authz.PlannedAbsenceList), h.PlannedAbsence.List)
	attendance.PATCH("/planned-absences/:id/cancel", allow(authz.PlannedAbsenceCancel), h.PlannedAbsence.Cancel)
	if h.Reports != nil {
		attendance.POST("/reports", allow(authz.ReportCreate), h.Reports.Create)
		attendance.GET("/reports/:id", allow(authz.ReportStatus), h.Reports.Status)
	}

	marks := secured.Group("/marks")
	marks.POST("/mark", allow(authz.MarksMark), h.Marks.Mark)
	marks.GET("/by-batch", allow(authz.MarksRead), h.Marks.ByBatch)
	marks.GET("/missed", allow(authz.MarksRead), h.Marks.Missed)
	marks.GET("/top", allow(authz.MarksRead), h.Marks.Top)
	marks.POST("/exam-attendance/mark", allow(authz.ExamAttendanceMark), h.Marks.MarkExamAttendance)
	marks.GET("/exam-attendance/by-batch", allow(authz.ExamAttendanceRead), h.Marks.ExamAttendanceByBatch)

	presentations := secured.Group("/presentations")
	presentations.GET("/by-batch", allow(authz.PresentationRead), h.Presentations.ByBatch)
	presentations.POST("/save", allow(authz.PresentationWrite), h.Presentations.Save)
	presentations.POST("/evaluate", allow(authz.PresentationWrite), h.Presentations.Evaluate)
	presentations.POST("/lock-evaluation", allow(authz.PresentationWrite), h.Presentations.Lock)
	presentations.POST("/update-topic", allow(authz.PresentationWrite), h.Presentations.UpdateTopic)
	presentations.POST("/unassign", allow(authz.PresentationWrite), h.Presentations.Unassign)

	students := secured.Group("/students")
	students.GET("", allow(authz.StudentRead), h.Students.List)
	students.GET("/regions", allow(authz.StudentRead), h.Students.Regions)
	students.GET("/schools", allow(authz.StudentRead), h.Students.Schools)
	students.GET("/batches/:region", allow(authz.StudentRead), h.Students.Batches)
	students.GET("/stats", allow(authz.StudentDirectoryStats), h.Students.Stats)
	students.POST("", allow(authz.StudentWrite), h.Students.Create)
	students.PUT("/:id", allow(authz.StudentWrite), h.Students.Update)
	students.DELETE("/:id", allow(authz.StudentWrite), h.Students.Delete)

	users := secured.Group("/users")
	users.GET("", allow(authz.UserRead), h.Users.List)
	users.GET("/teachers", allow(authz.TeacherDirectoryRead), h.Users.Teachers)
	users.POST("", allow(authz.UserWrite), h.Users.Create)
	users.DELETE("/:id", allow(authz.UserWrite), h.Users.Delete)

	workReports := secured.Group("/work-reports")
	workReports.POST("", allow(authz.WorkReportWrite), h.WorkReports.Save)
	workReports.GET("", allow(authz.WorkReportRead), h.WorkReports.List)
	workReports.GET("/:id", allow(authz.WorkReportRead), h.WorkReports.Get)
	workReports.DELETE("/:id", allow(authz.WorkReportWrite), h.WorkReports.Delete)

	examPlan := secured.Group("/exam-plan")
	examPlan.GET("", allow(authz.ExamPlanRead), h.ExamPlan.Get)
	examPlan.PUT("", allow(authz.ExamPlanWrite), middleware.Audit(deps.Audit, models.AuditActionExamPlanUpdate, "exam_plan"), h.ExamPlan.Save)

	secured.GET("/audit-logs", allow(authz.AuditLogList), h.Audit.List)
	secured.GET("/metrics/system", allow(authz.SystemMetrics), h.Metrics.System)
}
