package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

// AuditJobType tags audit entries on the shared job queue.
const AuditJobType = "audit_log"

const auditWriteTimeout = 5 * time.Second

type auditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

type auditQueue interface {
	TryEnqueue(job jobs.Job) error
}

// AuditRecorder is the write side used by other services.
type AuditRecorder interface {
	Record(ctx context.Context, entry models.AuditEntry)
}

// AuditService appends privileged actions to the audit log. Recording never
// fails the caller: errors are logged and the entry is dropped.
type AuditService struct {
	repo    auditStore
	queue   auditQueue
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuditService constructs the audit writer. Without a queue, entries are
// written inline.
func NewAuditService(repo auditStore, metrics *MetricsService, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger, now: time.Now}
}

// UseQueue routes subsequent entries through the background queue.
func (s *AuditService) UseQueue(queue auditQueue) {
	s.queue = queue
}

// Record builds the log row and hands it off.
func (s *AuditService) Record(ctx context.Context, entry models.AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	row, err := s.buildLog(entry)
	if err != nil {
		s.drop(entry.Action, err)
		return
	}

	if s.queue != nil {
		if err := s.queue.TryEnqueue(jobs.Job{ID: row.ID, Type: AuditJobType, Payload: row}); err != nil {
			s.drop(entry.Action, err)
		}
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()
	if err := s.repo.Insert(writeCtx, row); err != nil {
		s.drop(entry.Action, err)
	}
}

// Handle is the queue handler that persists a queued entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	row, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.drop(job.Type, fmt.Errorf("unexpected audit payload %T", job.Payload))
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, auditWriteTimeout)
	defer cancel()
	if err := s.repo.Insert(writeCtx, row); err != nil {
		s.drop(row.Action, err)
	}
	return nil
}

// List pages through the audit log.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list audit logs")
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	return logs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

func (s *AuditService) buildLog(entry models.AuditEntry) (*models.AuditLog, error) {
	row := &models.AuditLog{
		ID:        uuid.NewString(),
		ActorName: entry.ActorName,
		Action:    entry.Action,
		Entity:    entry.Entity,
		CreatedAt: s.now().UTC(),
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		row.ActorID = &actor
	}
	if entry.EntityID != "" {
		id := entry.EntityID
		row.EntityID = &id
	}
	var err error
	if row.Before, err = marshalAuditValue(entry.Before); err != nil {
		return nil, err
	}
	if row.After, err = marshalAuditValue(entry.After); err != nil {
		return nil, err
	}
	if len(entry.Meta) > 0 {
		if row.Meta, err = marshalAuditValue(entry.Meta); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (s *AuditService) drop(action string, err error) {
	s.metrics.RecordAuditDropped()
	s.logger.Warn("audit entry dropped", zap.String("action", action), zap.Error(err))
}

func marshalAuditValue(v interface{}) (models.RawJSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal audit value: %w", err)
	}
	return models.RawJSON(data), nil
}

// principalEntry starts an audit entry for the acting principal.
func principalEntry(actor models.Principal, action, entity, entityID string) models.AuditEntry {
	return models.AuditEntry{
		ActorID:   actor.ID,
		ActorName: actor.Name,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
	}
}

