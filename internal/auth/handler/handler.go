// Package handler exposes the user-management HTTP endpoints.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bridge_backend/internal/auth/service"
	"bridge_backend/internal/auth/transport"
	"bridge_backend/internal/auth/verifier"
	"bridge_backend/platform/httpkit"
	"bridge_backend/platform/validator"
)

// Handler handles HTTP requests for user accounts.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid user id"
)

// New creates a new auth handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// GetMe returns the caller's own profile.
// GET /api/v1/users/me
func (h *Handler) GetMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	profile, err := h.svc.GetProfile(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

// SyncMe refreshes the local profile from the current token's claims.
// POST /api/v1/users/me:sync
func (h *Handler) SyncMe(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	raw, ok := c.Get(httpkit.ContextIdentityClaimsKey)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	claims, ok := raw.(verifier.ExternalIdentity)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	profile, err := h.svc.SyncProfile(c.Request.Context(), identity.UserID(), claims)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, profile)
}

// ListUsers returns a page of accounts for the admin console.
// GET /api/v1/admin/users
func (h *Handler) ListUsers(c *gin.Context) {
	var req transport.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.ListUsers(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SetUserRoles replaces a user's role assignments.
// PUT /api/v1/admin/users/:id/roles
func (h *Handler) SetUserRoles(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetUserRoles(c.Request.Context(), userID, req.Roles); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "roles updated"})
}

// SetUserActive enables or disables an account.
// PATCH /api/v1/admin/users/:id
func (h *Handler) SetUserActive(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), userID, *req.IsActive); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"message": "user updated"})
}
