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

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// UserListRequest is the query string of GET /users.
type UserListRequest struct {
	Role     string `form:"role" validate:"omitempty,user_role"`
	Search   string `form:"search"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}

// CreateUserRequest creates a staff profile. Credentials live with the
// identity provider.
type CreateUserRequest struct {
	Name   string          `json:"name" validate:"required,max=120"`
	Email  string          `json:"email" validate:"required,email"`
	Role   models.UserRole `json:"role" validate:"required,oneof=teacher admin"`
	Mobile string          `json:"mobile" validate:"max=20"`
	Region string          `json:"region"`
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	registerValidators(validate)
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, req UserListRequest) ([]models.User, *models.Pagination, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}
	filter := models.UserFilter{Search: strings.TrimSpace(req.Search), Page: req.Page, PageSize: req.PageSize, SortBy: "name", SortOrder: "ASC"}
	if req.Role != "" {
		role := models.UserRole(strings.ToLower(req.Role))
		filter.Role = &role
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Teachers lists active teachers by name.
func (s *UserService) Teachers(ctx context.Context) ([]models.User, error) {
	teachers, err := s.repo.ListByRole(ctx, models.RoleTeacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	if teachers == nil {
		teachers = []models.User{}
	}
	return teachers, nil
}

// Create adds a teacher or admin profile.
func (s *UserService) Create(ctx context.Context, actor models.Principal, req CreateUserRequest) (*models.User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Role = models.UserRole(strings.ToLower(string(req.Role)))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	taken, err := s.repo.ExistsByEmail(ctx, req.Email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	}

	user := &models.User{
		Name:     req.Name,
		Email:    &req.Email,
		Role:     req.Role,
		Mobile:   strings.TrimSpace(req.Mobile),
		Region:   strings.TrimSpace(req.Region),
		IsActive: true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	entry := principalEntry(actor, models.AuditActionUserCreate, "user", user.ID)
	entry.After = map[string]interface{}{"id": user.ID, "email": req.Email, "role": user.Role}
	s.recordAudit(ctx, entry)
	return user, nil
}

// Delete removes a user. Callers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor models.Principal, id string) error {
	id = strings.TrimSpace(id)
	if id == actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	entry := principalEntry(actor, models.AuditActionUserDelete, "user", user.ID)
	entry.Before = map[string]interface{}{"id": user.ID, "name": user.Name, "role": user.Role}
	s.recordAudit(ctx, entry)
	return nil
}

func (s *UserService) recordAudit(ctx context.Context, entry models.AuditEntry) {
	if s.audit != nil {
		s.audit.Record(ctx, entry)
	}
}
