package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
)

type plannedAbsenceServiceMock struct {
	result    *models.PlannedAbsenceMergeResult
	createErr error
	cancelErr error
	gotQuery  service.PlannedAbsenceQuery
	gotCancel string
}

func (m *plannedAbsenceServiceMock) Create(ctx context.Context, actor models.Principal, req service.CreatePlannedAbsenceRequest) (*models.PlannedAbsenceMergeResult, error) {
	return m.result, m.createErr
}

func (m *plannedAbsenceServiceMock) List(ctx context.Context, query service.PlannedAbsenceQuery) ([]models.PlannedAbsence, error) {
	m.gotQuery = query
	return []models.PlannedAbsence{}, nil
}

func (m *plannedAbsenceServiceMock) Cancel(ctx context.Context, actor models.Principal, id string) (*models.PlannedAbsence, error) {
	m.gotCancel = id
	if m.cancelErr != nil {
		return nil, m.cancelErr
	}
	return &models.PlannedAbsence{ID: id}, nil
}

const plannedBody = `{"studentId":"s1","fromDate":"2024-03-04","toDate":"2024-03-08","reason":"family trip"}`

func TestPlannedAbsenceHandlerCreateNewRange(t *testing.T) {
	h := NewPlannedAbsenceHandler(&plannedAbsenceServiceMock{result: &models.PlannedAbsenceMergeResult{Merged: false}})
	c, w := newGinContext(http.MethodPost, "/attendance/planned-absences", []byte(plannedBody))
	asUser(c, teacher)

	h.Create(c)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestPlannedAbsenceHandlerCreateMerged(t *testing.T) {
	h := NewPlannedAbsenceHandler(&plannedAbsenceServiceMock{result: &models.PlannedAbsenceMergeResult{Merged: true, AttendanceNotesUpdated: 2}})
	c, w := newGinContext(http.MethodPost, "/attendance/planned-absences", []byte(plannedBody))
	asUser(c, teacher)

	h.Create(c)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeEnvelope(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["merged"])
	assert.EqualValues(t, 2, data["attendanceNotesUpdated"])
}

func TestPlannedAbsenceHandlerCreateInvalidRange(t *testing.T) {
	h := NewPlannedAbsenceHandler(&plannedAbsenceServiceMock{createErr: appErrors.Clone(appErrors.ErrInvalidRange, "fromDate must not be after toDate")})
	c, w := newGinContext(http.MethodPost, "/attendance/planned-absences", []byte(plannedBody))
	asUser(c, teacher)

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errBody := decodeEnvelope(t, w)["error"].(map[string]interface{})
	assert.Equal(t, appErrors.ErrInvalidRange.Code, errBody["code"])
}

func TestPlannedAbsenceHandlerListBindsFilters(t *testing.T) {
	svc := &plannedAbsenceServiceMock{}
	h := NewPlannedAbsenceHandler(svc)
	c, w := newGinContext(http.MethodGet, "/attendance/planned-absences?region=north&batchNumber=all&date=2024-03-05", nil)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "north", svc.gotQuery.Region)
	assert.Equal(t, "all", svc.gotQuery.BatchNumber)
	assert.Equal(t, "2024-03-05", svc.gotQuery.Date)
}

func TestPlannedAbsenceHandlerCancelNotFound(t *testing.T) {
	svc := &plannedAbsenceServiceMock{cancelErr: appErrors.ErrNotFound}
	h := NewPlannedAbsenceHandler(svc)
	c, w := newGinContext(http.MethodPatch, "/attendance/planned-absences/pa-1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "pa-1"}}
	asUser(c, teacher)

	h.Cancel(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "pa-1", svc.gotCancel)
}
