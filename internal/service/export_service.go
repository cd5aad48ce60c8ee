package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/export"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

type reportSource interface {
	Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, bool, error)
	LowAttendance(ctx context.Context, req LowAttendanceRequest) (*models.LowAttendanceReport, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// ExportService renders attendance reports to PDF and keeps the files until
// their signed links expire.
type ExportService struct {
	source  reportSource
	storage fileStorage
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(source reportSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		source:  source,
		storage: store,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Generate builds the dataset for the job, renders it and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/attendance/reports/download/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, or the configured ResultTTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s_%s.pdf",
		string(job.Type),
		sanitizeFilename(job.Params.Region),
		sanitizeFilename(job.Params.BatchNumber),
		timestamp,
	)
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, error) {
	switch job.Type {
	case models.ReportTypeAttendanceSummary, "":
		return s.summaryDataset(ctx, job.Params)
	case models.ReportTypeLowAttendance:
		return s.lowAttendanceDataset(ctx, job.Params)
	default:
		return export.Dataset{}, fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) summaryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	summary, _, err := s.source.Summary(ctx, SummaryRequest{
		Region:      params.Region,
		BatchNumber: params.BatchNumber,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Status:      params.StudentStatus,
	})
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([][]string, 0, len(summary.Students))
	for i, st := range summary.Students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			st.Name,
			st.SchoolName,
			strconv.Itoa(st.Present),
			strconv.Itoa(st.Late),
			strconv.Itoa(st.Leave),
			strconv.Itoa(st.Absent),
			fmt.Sprintf("%d/%d", st.TotalMarked, st.TotalClasses),
			fmt.Sprintf("%.2f%%", st.Percentage),
		})
	}
	stats := summary.Stats
	return export.Dataset{
		Title: "Attendance Summary",
		Subtitle: []string{
			fmt.Sprintf("Region %s, batch %s", params.Region, params.BatchNumber),
			fmt.Sprintf("%s to %s", stats.DateRange.Start, stats.DateRange.End),
		},
		Columns: []export.Column{
			{Header: "#", Width: 10, Align: "C"},
			{Header: "Student", Width: 50},
			{Header: "School", Width: 40},
			{Header: "Present", Align: "R"},
			{Header: "Late", Align: "R"},
			{Header: "Leave", Align: "R"},
			{Header: "Absent", Align: "R"},
			{Header: "Marked", Align: "C"},
			{Header: "Rate", Align: "R"},
		},
		Rows: rows,
		Footer: []string{
			fmt.Sprintf("Classes held: %d", stats.TotalClasses),
			fmt.Sprintf("Students: %d", stats.TotalStudents),
			fmt.Sprintf("Present marks: %d, absent marks: %d", stats.TotalPresent, stats.TotalAbsent),
			fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC3339)),
		},
	}, nil
}

func (s *ExportService) lowAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, error) {
	report, _, err := s.source.LowAttendance(ctx, LowAttendanceRequest{
		Region:      params.Region,
		BatchNumber: params.BatchNumber,
		MinAbsent:   params.MinAbsent,
		Days:        params.Days,
	})
	if err != nil {
		return export.Dataset{}, err
	}

	rows := make([][]string, 0, len(report.Students))
	for _, st := range report.Students {
		rows = append(rows, []string{
			st.Name,
			st.BatchNumber,
			st.Mobile,
			strconv.Itoa(st.AbsentCount),
			strings.Join(st.AbsentDates, ", "),
		})
	}
	batch := params.BatchNumber
	if batch == "" {
		batch = "all batches"
	}
	return export.Dataset{
		Title: "Low Attendance",
		Subtitle: []string{
			fmt.Sprintf("Region %s, %s", params.Region, batch),
			fmt.Sprintf("%s to %s, at least %d absences", report.StartDate, report.EndDate, report.MinAbsent),
		},
		Columns: []export.Column{
			{Header: "Student", Width: 50},
			{Header: "Batch", Width: 20},
			{Header: "Mobile", Width: 30},
			{Header: "Absent", Width: 15, Align: "R"},
			{Header: "Dates"},
		},
		Rows:   rows,
		Footer: []string{fmt.Sprintf("Students listed: %d", len(rows))},
	}, nil
}
