package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
)

// AccessHandlers exposes the tenant access validator
type AccessHandlers struct {
	validator domain.AccessValidator
}

// NewAccessHandlers creates new access handlers
func NewAccessHandlers(validator domain.AccessValidator) *AccessHandlers {
	return &AccessHandlers{validator: validator}
}

// AuthorizeRequest asks which of ids the caller may act on
type AuthorizeRequest struct {
	Kind string `json:"kind" binding:"required"`
	IDs  []uint `json:"ids"`
}

// Authorize filters the requested ids down to the caller's tenant
func (h *AccessHandlers) Authorize(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		RespondError(c, domain.ErrUnauthenticated)
		return
	}

	var req AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	allowed, err := h.validator.Authorize(c.Request.Context(), caller, domain.EntityKind(req.Kind), req.IDs)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"kind":        req.Kind,
			"allowed_ids": allowed,
		},
	})
}

// Scope echoes the ids the tenant access middleware let through
func (h *AccessHandlers) Scope(c *gin.Context) {
	ids := AllowedIDsFrom(c)
	if ids == nil {
		ids = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"kind": c.Param("kind"),
			"ids":  ids,
		},
	})
}
