package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/attendance-tracker-api/internal/authz"
	"github.com/noah-isme/attendance-tracker-api/internal/models"
	"github.com/noah-isme/attendance-tracker-api/pkg/response"
)

// AuthHandler reports who the caller is and what they may do.
type AuthHandler struct {
	policy *authz.Policy
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(policy *authz.Policy) *AuthHandler {
	return &AuthHandler{policy: policy}
}

type meResponse struct {
	models.Principal
	Operations []authz.Operation `json:"operations"`
}

// Me godoc
// @Summary Current principal
// @Description Returns the authenticated caller and the operations allowed for their role
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	ops := h.policy.Operations(actor.Role)
	if ops == nil {
		ops = []authz.Operation{}
	}
	response.JSON(c, http.StatusOK, meResponse{Principal: actor, Operations: ops}, nil)
}
