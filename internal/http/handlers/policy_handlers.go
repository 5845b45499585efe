package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
)

// PolicyHandlers manages role to menu grants
type PolicyHandlers struct {
	policies domain.PolicyService
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policies domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policies: policies}
}

type menuGrantReq struct {
	Role   string `json:"role" binding:"required"`
	MenuID uint   `json:"menu_id" binding:"required"`
}

var errUnknownRole = errors.New("unknown role")

func parseRole(s string) (domain.Role, error) {
	role := domain.Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.Valid() {
		return "", errUnknownRole
	}
	return role, nil
}

// List returns the menu ids of ?role=, or every stored rule without it
func (h *PolicyHandlers) List(c *gin.Context) {
	if c.Query("role") == "" {
		c.JSON(http.StatusOK, gin.H{"data": h.policies.GetPolicies()})
		return
	}

	role, err := parseRole(c.Query("role"))
	if err != nil {
		badRequest(c, err)
		return
	}
	ids, err := h.policies.AccessibleMenuIDs(c.Request.Context(), role)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"role": role, "menu_ids": ids}})
}

// Add grants a menu to a role
func (h *PolicyHandlers) Add(c *gin.Context) {
	role, menuID, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.policies.GrantMenu(role, menuID); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Remove revokes a menu from a role
func (h *PolicyHandlers) Remove(c *gin.Context) {
	role, menuID, ok := h.bind(c)
	if !ok {
		return
	}
	if err := h.policies.RevokeMenu(role, menuID); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PolicyHandlers) bind(c *gin.Context) (domain.Role, uint, bool) {
	var r menuGrantReq
	if err := c.ShouldBindJSON(&r); err != nil {
		badRequest(c, err)
		return "", 0, false
	}
	role, err := parseRole(r.Role)
	if err != nil {
		badRequest(c, err)
		return "", 0, false
	}
	return role, r.MenuID, true
}
