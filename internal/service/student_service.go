package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Regions(ctx context.Context) ([]string, error)
	Schools(ctx context.Context, region string) ([]string, error)
	Batches(ctx context.Context, region string) ([]string, error)
	Stats(ctx context.Context) (*models.StudentStats, error)
}

type userWriter interface {
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// StudentListRequest filters the active roster.
type StudentListRequest struct {
	Region      string `form:"region"`
	SchoolName  string `form:"schoolName"`
	BatchNumber string `form:"batchNumber"`
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"omitempty,email"`
	Region      string `json:"region" validate:"required"`
	SchoolName  string `json:"schoolName" validate:"required"`
	BatchNumber string `json:"batchNumber" validate:"required"`
	Mobile      string `json:"mobile" validate:"max=20"`
	Age         *int   `json:"age" validate:"omitempty,min=1,max=120"`
	Standard    string `json:"standard"`
}

// UpdateStudentRequest holds payload for updating students. Nil fields keep
// their stored value.
type UpdateStudentRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=120"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Region      *string `json:"region" validate:"omitempty,min=1"`
	SchoolName  *string `json:"schoolName" validate:"omitempty,min=1"`
	BatchNumber *string `json:"batchNumber" validate:"omitempty,min=1"`
	Mobile      *string `json:"mobile" validate:"omitempty,max=20"`
	Age         *int    `json:"age" validate:"omitempty,min=1,max=120"`
	Standard    *string `json:"standard"`
	IsActive    *bool   `json:"isActive"`
}

// StudentService handles roster reads and admin maintenance of students.
type StudentService struct {
	repo      studentRepository
	users     userWriter
	cache     cacheInvalidator
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, users userWriter, cache cacheInvalidator, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, users: users, cache: cache, audit: audit, validator: validate, logger: logger}
}

// List returns active students matching the filter ordered by name.
func (s *StudentService) List(ctx context.Context, req StudentListRequest) ([]models.User, error) {
	students, err := s.repo.List(ctx, models.StudentFilter{
		Region:      strings.TrimSpace(req.Region),
		SchoolName:  strings.TrimSpace(req.SchoolName),
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		Status:      "active",
	})
	if err != nil {
		return nil, internalError(err, "failed to list students")
	}
	if students == nil {
		students = []models.User{}
	}
	return students, nil
}

// Regions lists the regions that have active students.
func (s *StudentService) Regions(ctx context.Context) ([]string, error) {
	return s.distinct(s.repo.Regions(ctx))
}

// Schools lists school names, optionally within a region.
func (s *StudentService) Schools(ctx context.Context, region string) ([]string, error) {
	return s.distinct(s.repo.Schools(ctx, strings.TrimSpace(region)))
}

// Batches lists the batches of a region.
func (s *StudentService) Batches(ctx context.Context, region string) ([]string, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "region is required")
	}
	return s.distinct(s.repo.Batches(ctx, region))
}

// Stats counts students by activity.
func (s *StudentService) Stats(ctx context.Context) (*models.StudentStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, internalError(err, "failed to load student stats")
	}
	return stats, nil
}

func (s *StudentService) distinct(values []string, err error) ([]string, error) {
	if err != nil {
		return nil, internalError(err, "failed to load roster values")
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

// Create registers a new active student.
func (s *StudentService) Create(ctx context.Context, actor models.Principal, req CreateStudentRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.ensureEmailFree(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	student := &models.User{
		Name:        req.Name,
		Role:        models.RoleStudent,
		Region:      strings.TrimSpace(req.Region),
		SchoolName:  strings.TrimSpace(req.SchoolName),
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		Mobile:      strings.TrimSpace(req.Mobile),
		Age:         req.Age,
		Standard:    strings.TrimSpace(req.Standard),
		IsActive:    true,
	}
	if req.Email != "" {
		student.Email = &req.Email
	}
	if err := s.users.Create(ctx, student); err != nil {
		return nil, internalError(err, "failed to create student")
	}
	s.invalidate(ctx)

	entry := principalEntry(actor, models.AuditActionStudentCreate, "student", student.ID)
	entry.After = student
	s.recordAudit(ctx, entry)
	return student, nil
}

// Update applies the non-nil fields of the request.
func (s *StudentService) Update(ctx context.Context, actor models.Principal, id string, req UpdateStudentRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *student

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if err := s.ensureEmailFree(ctx, email, student.ID); err != nil {
			return nil, err
		}
		student.Email = nil
		if email != "" {
			student.Email = &email
		}
	}
	assignTrimmed(&student.Name, req.Name)
	assignTrimmed(&student.Region, req.Region)
	assignTrimmed(&student.SchoolName, req.SchoolName)
	assignTrimmed(&student.BatchNumber, req.BatchNumber)
	assignTrimmed(&student.Mobile, req.Mobile)
	assignTrimmed(&student.Standard, req.Standard)
	if req.Age != nil {
		student.Age = req.Age
	}
	if req.IsActive != nil {
		student.IsActive = *req.IsActive
	}

	if err := s.users.Update(ctx, student); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to update student")
	}
	s.invalidate(ctx)

	entry := principalEntry(actor, models.AuditActionStudentUpdate, "student", student.ID)
	entry.Before = before
	entry.After = student
	s.recordAudit(ctx, entry)
	return student, nil
}

// Delete removes the student and, through cascading keys, their records.
func (s *StudentService) Delete(ctx context.Context, actor models.Principal, id string) error {
	student, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, student.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return internalError(err, "failed to delete student")
	}
	s.invalidate(ctx)

	entry := principalEntry(actor, models.AuditActionStudentDelete, "student", student.ID)
	entry.Before = student
	s.recordAudit(ctx, entry)
	return nil
}

func (s *StudentService) find(ctx context.Context, id string) (*models.User, error) {
	student, err := s.repo.FindByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, internalError(err, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	if email == "" {
		return nil
	}
	taken, err := s.users.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return internalError(err, "failed to check email uniqueness")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}
	return nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, AttendanceCachePattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (s *StudentService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}

func assignTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
