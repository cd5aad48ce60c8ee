package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type userServiceMock struct {
	gotList   service.UserListRequest
	deleteErr error
	deleted   string
}

func (m *userServiceMock) List(ctx context.Context, req service.UserListRequest) ([]models.User, *models.Pagination, error) {
	m.gotList = req
	return []models.User{{ID: "t1", Name: "Asha", Role: models.RoleTeacher}}, &models.Pagination{Page: 2, PageSize: 10, TotalCount: 11}, nil
}

func (m *userServiceMock) Teachers(ctx context.Context) ([]models.User, error) {
	return []models.User{}, nil
}

func (m *userServiceMock) Create(ctx context.Context, actor models.Principal, req service.CreateUserRequest) (*models.User, error) {
	return &models.User{ID: "u-new", Name: req.Name}, nil
}

func (m *userServiceMock) Delete(ctx context.Context, actor models.Principal, id string) error {
	m.deleted = id
	return m.deleteErr
}

func TestUserHandlerListPaginates(t *testing.T) {
	svc := &userServiceMock{}
	h := NewUserHandler(svc)
	c, w := newGinContext(http.MethodGet, "/users?role=teacher&page=2&pageSize=10", nil)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher", svc.gotList.Role)
	assert.Equal(t, 2, svc.gotList.Page)
	pagination := decodeEnvelope(t, w)["pagination"].(map[string]interface{})
	assert.EqualValues(t, 11, pagination["totalCount"])
}

func TestUserHandlerDeleteSelfForbidden(t *testing.T) {
	svc := &userServiceMock{deleteErr: appErrors.Clone(appErrors.ErrForbidden, "cannot delete yourself")}
	h := NewUserHandler(svc)
	admin := models.Principal{ID: "a1", Name: "Root", Role: models.RoleAdmin}
	c, w := newGinContext(http.MethodDelete, "/users/a1", nil)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}
	asUser(c, admin)

	h.Delete(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "a1", svc.deleted)
}

func TestUserHandlerDeleteNoContent(t *testing.T) {
	h := NewUserHandler(&userServiceMock{})
	c, _ := newGinContext(http.MethodDelete, "/users/t9", nil)
	c.Params = gin.Params{{Key: "id", Value: "t9"}}
	asUser(c, models.Principal{ID: "a1", Role: models.RoleAdmin})

	h.Delete(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
}

func TestAuthHandlerMeListsOperations(t *testing.T) {
	h := NewAuthHandler(authz.DefaultPolicy())
	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	asUser(c, models.Principal{ID: "a1", Name: "Root", Role: models.RoleAdmin})

	h.Me(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "a1", data["id"])
	assert.Contains(t, data["operations"], string(authz.AuditLogList))
}
