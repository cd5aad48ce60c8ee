package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
)

// AuditRecorder accepts audit entries without reporting failures.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// Audit records one entry after every successful request on the route.
func Audit(recorder AuditRecorder, action, entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if recorder == nil || c.Writer.Status() >= 400 {
			return
		}

		entry := models.AuditEntry{
			Action:   action,
			Entity:   entity,
			EntityID: c.Param("id"),
			Meta: map[string]interface{}{
				"path":      c.FullPath(),
				"method":    c.Request.Method,
				"status":    c.Writer.Status(),
				"latencyMs": time.Since(start).Milliseconds(),
				"ip":        c.ClientIP(),
				"userAgent": c.GetHeader("User-Agent"),
			},
		}
		if principal, ok := PrincipalFromContext(c); ok {
			entry.ActorID = principal.ID
			entry.ActorName = principal.Name
		}
		if reqID := requestid.Value(c); reqID != "" {
			entry.Meta["requestId"] = reqID
		}
		if query := c.Request.URL.RawQuery; query != "" {
			entry.Meta["query"] = query
		}
		recorder.Record(c.Request.Context(), entry)
	}
}
