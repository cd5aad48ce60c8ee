package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/internal/service"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

type presentationService interface {
	ByBatch(ctx context.Context, req service.PresentationScopeRequest) (*models.BatchPresentations, error)
	Save(ctx context.Context, actor models.Principal, req service.SavePresentationsRequest) (*models.PresentationSaveResult, error)
	Evaluate(ctx context.Context, actor models.Principal, req service.EvaluatePresentationsRequest) (*models.PresentationEvaluateResult, error)
	Lock(ctx context.Context, actor models.Principal, req service.LockEvaluationRequest) (*models.PresentationChange, error)
	UpdateTopic(ctx context.Context, actor models.Principal, req service.UpdateTopicRequest) (*models.PresentationChange, error)
	Unassign(ctx context.Context, actor models.Principal, req service.UnassignPresentationsRequest) (*models.PresentationSaveResult, error)
}

// PresentationHandler exposes presentation group and evaluation endpoints.
type PresentationHandler struct {
	service presentationService
}

// NewPresentationHandler constructs PresentationHandler.
func NewPresentationHandler(svc presentationService) *PresentationHandler {
	return &PresentationHandler{service: svc}
}

// ByBatch godoc
// @Summary Presentation groups of a batch session
// @Tags Presentations
// @Produce json
// @Param region query string true "Region"
// @Param batchNumber query string true "Batch number"
// @Param date query string true "Date"
// @Success 200 {object} response.Envelope
// @Router /presentations/by-batch [get]
func (h *PresentationHandler) ByBatch(c *gin.Context) {
	var req service.PresentationScopeRequest
	if !bindQuery(c, &req) {
		return
	}
	view, err := h.service.ByBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Save godoc
// @Summary Assign students to presentation groups
// @Tags Presentations
// @Accept json
// @Produce json
// @Param payload body service.SavePresentationsRequest true "Assignments"
// @Success 200 {object} response.Envelope
// @Router /presentations/save [post]
func (h *PresentationHandler) Save(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.SavePresentationsRequest
	if !bindJSON(c, &req, "invalid presentation payload") {
		return
	}
	result, err := h.service.Save(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Evaluate godoc
// @Summary Score presentations
// @Tags Presentations
// @Accept json
// @Produce json
// @Param payload body service.EvaluatePresentationsRequest true "Evaluations"
// @Success 200 {object} response.Envelope
// @Router /presentations/evaluate [post]
func (h *PresentationHandler) Evaluate(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.EvaluatePresentationsRequest
	if !bindJSON(c, &req, "invalid evaluation payload") {
		return
	}
	result, err := h.service.Evaluate(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Lock godoc
// @Summary Lock or unlock evaluations
// @Tags Presentations
// @Accept json
// @Produce json
// @Param payload body service.LockEvaluationRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /presentations/lock-evaluation [post]
func (h *PresentationHandler) Lock(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.LockEvaluationRequest
	if !bindJSON(c, &req, "invalid lock payload") {
		return
	}
	result, err := h.service.Lock(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// UpdateTopic godoc
// @Summary Rename a group's topic
// @Tags Presentations
// @Accept json
// @Produce json
// @Param payload body service.UpdateTopicRequest true "Topic"
// @Success 200 {object} response.Envelope
// @Router /presentations/update-topic [post]
func (h *PresentationHandler) UpdateTopic(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.UpdateTopicRequest
	if !bindJSON(c, &req, "invalid topic payload") {
		return
	}
	result, err := h.service.UpdateTopic(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Unassign godoc
// @Summary Remove students from their groups
// @Tags Presentations
// @Accept json
// @Produce json
// @Param payload body service.UnassignPresentationsRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /presentations/unassign [post]
func (h *PresentationHandler) Unassign(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req service.UnassignPresentationsRequest
	if !bindJSON(c, &req, "invalid unassign payload") {
		return
	}
	result, err := h.service.Unassign(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
