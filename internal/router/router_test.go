package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	"github.com/noah-isme/attendance-tracker-api/internal/dto"
	"github.com/noah-isme/attendance-tracker-api/internal/handler"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type tokenAuth map[string]*models.Principal

func (a tokenAuth) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	if p, ok := a[token]; ok {
		return p, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type reportStub struct{}

func (reportStub) CreateJob(ctx context.Context, actor models.Principal, req dto.ReportRequest) (*dto.ReportJobResponse, error) {
	return nil, appErrors.ErrInternal
}

func (reportStub) GetStatus(ctx context.Context, actor models.Principal, id string) (*dto.ReportStatusResponse, error) {
	return nil, appErrors.ErrInternal
}

func (reportStub) ResolveDownload(ctx context.Context, token string) (*service.ReportDownload, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "no such report")
}

const prefix = "/api/v1"

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	policy := authz.DefaultPolicy()
	r := gin.New()
	Register(r, prefix, Handlers{
		Auth:    handler.NewAuthHandler(policy),
		Reports: handler.NewReportHandler(reportStub{}),
	}, Dependencies{
		Auth: tokenAuth{
			"student": {ID: "s1", Name: "Kiran", Role: models.RoleStudent},
			"teacher": {ID: "t1", Name: "Asha", Role: models.RoleTeacher},
		},
		Policy: policy,
	})
	return r
}

func concretePath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			parts[i] = "x"
		}
	}
	return strings.Join(parts, "/")
}

func call(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func isPublicOrSelf(path string) bool {
	return strings.Contains(path, "/download/") || strings.HasSuffix(path, "/auth/me")
}

func TestEveryRouteRequiresToken(t *testing.T) {
	r := newEngine(t)
	routes := r.Routes()
	require.NotEmpty(t, routes)
	for _, route := range routes {
		if strings.Contains(route.Path, "/download/") {
			continue
		}
		w := call(r, route.Method, concretePath(route.Path), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.Method, route.Path)
	}
}

func TestStudentsAreDeniedEverywhere(t *testing.T) {
	r := newEngine(t)
	for _, route := range r.Routes() {
		if isPublicOrSelf(route.Path) {
			continue
		}
		w := call(r, route.Method, concretePath(route.Path), "student")
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", route.Method, route.Path)
	}
}

func TestTeachersAreDeniedAdminRoutes(t *testing.T) {
	r := newEngine(t)
	adminOnly := []struct{ method, path string }{
		{http.MethodPost, "/students"},
		{http.MethodPut, "/students/x"},
		{http.MethodDelete, "/students/x"},
		{http.MethodGet, "/users"},
		{http.MethodPost, "/users"},
		{http.MethodDelete, "/users/x"},
		{http.MethodGet, "/audit-logs"},
		{http.MethodGet, "/metrics/system"},
	}
	for _, tc := range adminOnly {
		w := call(r, tc.method, prefix+tc.path, "teacher")
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestDownloadIsReachableWithoutBearer(t *testing.T) {
	r := newEngine(t)
	w := call(r, http.MethodGet, prefix+"/attendance/reports/download/abc", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no such report")
}

func TestMeListsTeacherOperations(t *testing.T) {
	r := newEngine(t)
	w := call(r, http.MethodGet, prefix+"/auth/me", "teacher")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"attendance.mark"`)
	assert.NotContains(t, w.Body.String(), `"user.write"`)

	w = call(r, http.MethodGet, prefix+"/auth/me", "student")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"operations":[]`)
}
