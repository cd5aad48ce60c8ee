package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListPending(ctx context.Context, limit int) ([]models.ReportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error)
	Delete(ctx context.Context, id string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error)
}

type exportFiles interface {
	ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

const cleanupBatchSize = 100

// ReportServiceConfig governs queue recovery and cleanup.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupSchedule string
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ReportService orchestrates the report job lifecycle.
type ReportService struct {
	repo      reportJobStore
	queue     jobDispatcher
	files     exportFiles
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
	cron      *cron.Cron
}

// NewReportService constructs the report service.
func NewReportService(repo reportJobStore, queue jobDispatcher, files exportFiles, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	registerValidators(validate)
	return &ReportService{
		repo:      repo,
		queue:     queue,
		files:     files,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists a QUEUED job and hands it to the queue.
func (s *ReportService) CreateJob(ctx context.Context, actor models.Principal, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	params, reportType, err := s.normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	job := &models.ReportJob{
		Type:      reportType,
		Params:    params,
		Status:    models.ReportStatusQueued,
		CreatedBy: actor.ID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, internalError(err, "failed to create report job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		s.markFailed(ctx, job.ID, "failed to enqueue job")
		return nil, internalError(err, "failed to enqueue report job")
	}

	if s.audit != nil {
		entry := principalEntry(actor, "attendance_report_queue", "report_job", job.ID)
		entry.After = job
		s.audit.Record(ctx, entry)
	}
	return &dto.ReportJobResponse{ID: job.ID, Type: job.Type, Status: job.Status, Progress: job.Progress}, nil
}

func (s *ReportService) normalizeRequest(req dto.ReportRequest) (models.ReportJobParams, models.ReportType, error) {
	req.Region = strings.TrimSpace(req.Region)
	req.BatchNumber = strings.TrimSpace(req.BatchNumber)
	if err := s.validator.Struct(req); err != nil {
		return models.ReportJobParams{}, "", validationError(err)
	}
	reportType := req.Type
	if reportType == "" {
		reportType = models.ReportTypeAttendanceSummary
	}
	if !reportType.Valid() {
		return models.ReportJobParams{}, "", appErrors.Clone(appErrors.ErrValidation, "unsupported report type")
	}

	params := models.ReportJobParams{Region: req.Region, BatchNumber: req.BatchNumber}
	switch reportType {
	case models.ReportTypeAttendanceSummary:
		if req.BatchNumber == "" {
			return params, "", appErrors.Clone(appErrors.ErrValidation, "batchNumber is required")
		}
		start, end, err := parseDateRange("startDate", req.StartDate, "endDate", req.EndDate)
		if err != nil {
			return params, "", err
		}
		params.StartDate, params.EndDate = start, end
		params.StudentStatus = req.Status
	case models.ReportTypeLowAttendance:
		params.MinAbsent = req.MinAbsent
		params.Days = req.Days
	}
	return params, reportType, nil
}

// GetStatus exposes job metadata. Teachers only see jobs they queued.
func (s *ReportService) GetStatus(ctx context.Context, actor models.Principal, id string) (*dto.ReportStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && job.CreatedBy != actor.ID {
		return nil, appErrors.ErrForbidden
	}
	resp := &dto.ReportStatusResponse{
		ID:        job.ID,
		Type:      job.Type,
		Status:    job.Status,
		Progress:  job.Progress,
		Params:    job.Params,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	if job.FinishedAt != nil {
		finished := job.FinishedAt.UTC().Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	jobID, relPath, expiresAt, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ReportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "report not ready")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, internalError(err, "failed to open report file")
	}
	return &ReportDownload{File: file, Filename: filepath.Base(relPath), ExpiresAt: expiresAt}, nil
}

// RecoverPendingJobs requeues jobs left QUEUED or PROCESSING by a previous process.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) int {
	pending, err := s.repo.ListPending(ctx, 50)
	if err != nil {
		s.logger.Warn("failed to recover pending report jobs", zap.Error(err))
		return 0
	}
	recovered := 0
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
			s.logger.Warn("failed to requeue report job", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("report jobs recovered", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanup schedules expired file removal on the configured cron schedule.
// Overlapping runs are skipped. The scheduler stops when ctx is done.
func (s *ReportService) StartCleanup(ctx context.Context) error {
	if s.cfg.CleanupSchedule == "" {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(s.cfg.CleanupSchedule, func() { s.CleanupExpired(ctx) }); err != nil {
		return err
	}
	s.cron = c
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	s.logger.Info("report cleanup scheduled", zap.String("schedule", s.cfg.CleanupSchedule))
	return nil
}

// CleanupExpired removes jobs finished before now-ResultTTL along with their
// files, then sweeps any stray file older than the TTL.
func (s *ReportService) CleanupExpired(ctx context.Context) int {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	removed := 0
	seen := map[string]struct{}{}
	for {
		finished, err := s.repo.ListFinishedBefore(ctx, cutoff, cleanupBatchSize)
		if err != nil {
			s.logger.Warn("report cleanup list failed", zap.Error(err))
			return removed
		}
		fresh := 0
		for _, job := range finished {
			if _, ok := seen[job.ID]; ok {
				continue
			}
			seen[job.ID] = struct{}{}
			fresh++
			if job.ResultURL != nil {
				if _, relPath, _, err := s.files.ParseToken(extractToken(*job.ResultURL), true); err == nil {
					if err := s.files.Delete(relPath); err != nil {
						s.logger.Warn("report cleanup delete failed", zap.String("job_id", job.ID), zap.Error(err))
						continue
					}
				}
			}
			if err := s.repo.Delete(ctx, job.ID); err != nil {
				s.logger.Warn("report cleanup row delete failed", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			removed++
		}
		if len(finished) < cleanupBatchSize || fresh == 0 {
			break
		}
	}
	stray, err := s.files.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report filesystem cleanup failed", zap.Error(err))
	}
	removed += len(stray)
	s.logger.Debug("report cleanup finished", zap.Int("removed", removed))
	return removed
}

func (s *ReportService) load(ctx context.Context, id string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, internalError(err, "failed to load report job")
	}
	return job, nil
}

func (s *ReportService) markFailed(ctx context.Context, id, msg string) {
	status := models.ReportStatusFailed
	progress := 100
	now := time.Now().UTC()
	if err := s.repo.Update(ctx, id, repository.UpdateReportJobParams{
		Status:       &status,
		Progress:     &progress,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		s.logger.Warn("failed to mark report job failed", zap.String("job_id", id), zap.Error(err))
	}
}

func extractToken(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ReportWorker bridges queue jobs to the exporter.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, maxRetries int, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{repo: repo, exporter: exporter, logger: logger, maxRetries: maxRetries}
}

// Handle renders one job. Failures before the last attempt put the job back
// to QUEUED so the queue retry picks it up again.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		return nil
	}
	processing := models.ReportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		msg := err.Error()
		params := repository.UpdateReportJobParams{ErrorMessage: &msg}
		if job.Attempt >= w.maxRetries {
			failed := models.ReportStatusFailed
			done := 100
			now := time.Now().UTC()
			params.Status, params.Progress, params.FinishedAt = &failed, &done, &now
		} else {
			queued := models.ReportStatusQueued
			reset := 0
			params.Status, params.Progress = &queued, &reset
		}
		if updateErr := w.repo.Update(ctx, job.ID, params); updateErr != nil {
			w.logger.Warn("failed to record report failure", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		w.logger.Warn("report generation failed",
			zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Error(err),
		)
		return err
	}

	finished := models.ReportStatusFinished
	progress = 100
	now := time.Now().UTC()
	url := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &url,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark report job finished", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	w.logger.Info("report generated", zap.String("job_id", job.ID), zap.String("type", string(record.Type)))
	return nil
}
