package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/attendance-tracker-api/api/swagger"
	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/middleware"
	"github.com/noah-isme/attendance-tracker-api/internal/repository"
	"github.com/noah-isme/attendance-tracker-api/internal/router"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/migrations"
	"github.com/noah-isme/attendance-tracker-api/pkg/cache"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/jobs"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/attendance-tracker-api/pkg/middleware/requestid"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

// @title Attendance Tracker API
// @version 1.0.0
// @description Attendance, marks and presentation tracking for regional student batches.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Migration.AutoMigrate {
		if err := database.Migrate(db, migrations.FS); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
	}
	if err := database.AssertUniqueKeys(ctx, db); err != nil {
		logr.Fatal("schema is missing required unique keys", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	app, err := buildApp(ctx, cfg, db, redisClient, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer app.stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	engine *gin.Engine
	queues []*jobs.Queue
}

func (a *application) stop() {
	for _, q := range a.queues {
		q.Stop()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()
	app := &application{}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	plannedRepo := repository.NewPlannedAbsenceRepository(db)
	contactRepo := repository.NewContactLogRepository(db)
	marksRepo := repository.NewMarksRepository(db)
	examAttendanceRepo := repository.NewExamAttendanceRepository(db)
	presentationRepo := repository.NewPresentationRepository(db)
	workReportRepo := repository.NewWorkReportRepository(db)
	examPlanRepo := repository.NewExamPlanRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)

	auditSvc := service.NewAuditService(auditRepo, metrics, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: -1,
		Logger:     logr,
	})
	auditQueue.Start(ctx)
	auditSvc.UseQueue(auditQueue)
	metrics.WatchQueue(auditQueue)
	app.queues = append(app.queues, auditQueue)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	authSvc := service.NewAuthService(userRepo, logr, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, plannedRepo, contactRepo, cacheSvc, auditSvc, metrics, validate, logr)
	summarySvc := service.NewSummaryService(attendanceRepo, studentRepo, cacheSvc, metrics, validate, logr)
	plannedSvc := service.NewPlannedAbsenceService(plannedRepo, cacheSvc, auditSvc, validate, logr)
	marksSvc := service.NewMarksService(marksRepo, examAttendanceRepo, presentationRepo, studentRepo, auditSvc, metrics, validate, logr)
	presentationSvc := service.NewPresentationService(presentationRepo, studentRepo, auditSvc, metrics, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, userRepo, cacheSvc, auditSvc, validate, logr)
	userSvc := service.NewUserService(userRepo, auditSvc, validate, logr)
	workReportSvc := service.NewWorkReportService(workReportRepo, auditSvc, validate, logr)
	examPlanSvc := service.NewExamPlanService(examPlanRepo, logr)

	policy := authz.DefaultPolicy()
	handlers := router.Handlers{
		Auth:           handler.NewAuthHandler(policy),
		Attendance:     handler.NewAttendanceHandler(attendanceSvc, summarySvc),
		PlannedAbsence: handler.NewPlannedAbsenceHandler(plannedSvc),
		Marks:          handler.NewMarksHandler(marksSvc),
		Presentations:  handler.NewPresentationHandler(presentationSvc),
		Students:       handler.NewStudentHandler(studentSvc),
		Users:          handler.NewUserHandler(userSvc),
		WorkReports:    handler.NewWorkReportHandler(workReportSvc),
		ExamPlan:       handler.NewExamPlanHandler(examPlanSvc),
		Audit:          handler.NewAuditHandler(auditSvc),
		Metrics: handler.NewMetricsHandler(metrics, map[string]handler.Probe{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		}),
	}

	if cfg.Reports.Enabled {
		reports, queue, err := buildReports(ctx, cfg, reportRepo, summarySvc, auditSvc, validate, logr)
		if err != nil {
			return nil, err
		}
		handlers.Reports = handler.NewReportHandler(reports)
		metrics.WatchQueue(queue)
		app.queues = append(app.queues, queue)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", handlers.Metrics.Ready)
	r.GET("/metrics", handlers.Metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.Register(r, cfg.APIPrefix, handlers, router.Dependencies{
		Auth:   authSvc,
		Policy: policy,
		Audit:  auditSvc,
	})

	app.engine = r
	return app, nil
}

func buildReports(ctx context.Context, cfg *config.Config, repo *repository.ReportRepository, summary *service.SummaryService, audit service.AuditRecorder, validate *validator.Validate, logr *zap.Logger) (*service.ReportService, *jobs.Queue, error) {
	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(summary, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, nil)

	worker := service.NewReportWorker(repo, exporter, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)

	reports := service.NewReportService(repo, queue, exporter, audit, validate, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupSchedule: cfg.Reports.CleanupSchedule,
	})
	if n := reports.RecoverPendingJobs(ctx); n > 0 {
		logr.Info("requeued pending report jobs", zap.Int("count", n))
	}
	if err := reports.StartCleanup(ctx); err != nil {
		return nil, nil, fmt.Errorf("schedule report cleanup: %w", err)
	}
	return reports, queue, nil
}
