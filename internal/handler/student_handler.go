package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, req service.StudentListRequest) ([]models.User, error)
	Regions(ctx context.Context) ([]string, error)
	Schools(ctx context.Context, region string) ([]string, error)
	Batches(ctx context.Context, region string) ([]string, error)
	Stats(ctx context.Context) (*models.StudentStats, error)
	Create(ctx context.Context, actor models.Principal, req service.CreateStudentRequest) (*models.User, error)
	Update(ctx context.Context, actor models.Principal, id string, req service.UpdateStudentRequest) (*models.User, error)
	Delete(ctx context.Context, actor models.Principal, id string) error
}

// StudentHandler exposes the student directory.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List active students
// @Tags Students
// @Produce json
// @Param region query string false "Region"
// @Param schoolName query string false "School"
// @Param batchNumber query string false "Batch number"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	var req service.StudentListRequest
	if !bindQuery(c, &req) {
		return
	}
	students, err := h.students.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Regions godoc
// @Summary Distinct student regions
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/regions [get]
func (h *StudentHandler) Regions(c *gin.Context) {
	regions, err := h.students.Regions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regions, nil)
}

// Schools godoc
// @Summary Distinct schools
// @Tags Students
// @Produce json
// @Param region query string false "Region"
// @Success 200 {object} response.Envelope
// @Router /students/schools [get]
func (h *StudentHandler) Schools(c *gin.Context) {
	schools, err := h.students.Schools(c.Request.Context(), c.Query("region"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schools, nil)
}

// Batches godoc
// @Summary Batches of a region
// @Tags Students
// @Produce json
// @Param region path string true "Region"
// @Success 200 {object} response.Envelope
// @Router /students/batches/{region} [get]
func (h *StudentHandler) Batches(c *gin.Context) {
	batches, err := h.students.Batches(c.Request.Context(), c.Param("region"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batches, nil)
}

// Stats godoc
// @Summary Student counts per region and batch
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/stats [get]
func (h *StudentHandler) Stats(c *gin.Context) {
	stats, err := h.students.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Create godoc
// @Summary Create a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.CreateStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update a student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.UpdateStudentRequest
	if !bindJSON(c, &req, "invalid student payload") {
		return
	}
	student, err := h.students.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete a student
// @Tags Students
// @Param id path string true "Student ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	if err := h.students.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
