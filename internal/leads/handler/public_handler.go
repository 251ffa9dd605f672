package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bridge_backend/internal/leads/service"
	"bridge_backend/internal/leads/transport"
	"bridge_backend/platform/httpkit"
	"bridge_backend/platform/validator"
)

// PublicHandler handles the unauthenticated shared-form endpoints.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates a handler for token-addressed public forms.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// GetPublicForm returns the render data for a shared form.
// GET /api/v1/public/forms/:token
func (h *PublicHandler) GetPublicForm(c *gin.Context) {
	result, err := h.svc.GetPublicForm(c.Request.Context(), c.Param("token"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SubmitPublicForm records a customer submission against a shared form.
// POST /api/v1/public/forms/:token/submit
func (h *PublicHandler) SubmitPublicForm(c *gin.Context) {
	var req transport.PublicSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SubmitPublicForm(c.Request.Context(), c.Param("token"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
