package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
)

const genericDeliveryMessage = "If the account exists, a message has been sent"

// AuthHandlers handles authentication HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService) *AuthHandlers {
	return &AuthHandlers{authSvc: authSvc}
}

// LoginRequest represents login request
type LoginRequest struct {
	Identity string `json:"identity" binding:"required"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code,omitempty"`
}

// RefreshRequest represents token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// IdentityRequest names the account of an unauthenticated request
type IdentityRequest struct {
	Identity string `json:"identity" binding:"required"`
}

// UpdatePasswordRequest represents a password change
type UpdatePasswordRequest struct {
	Identity    string `json:"identity" binding:"required"`
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Login handles sign in with an optional two-factor code
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.authSvc.Login(c.Request.Context(), req.Identity, req.Password, req.Code)
	if err != nil {
		RespondError(c, err)
		return
	}

	p := session.Principal
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token":  session.AccessToken,
			"refresh_token": session.RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    session.ExpiresIn,
			"principal": gin.H{
				"id":         p.ID,
				"identity":   p.Identity,
				"name":       p.Name,
				"role":       p.Role,
				"company_id": p.CompanyID,
				"factory_id": p.FactoryID,
			},
		},
	})
}

// Refresh handles access token renewal
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	token, err := h.authSvc.Renew(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": token,
			"token_type":   "Bearer",
		},
	})
}

// RequestTwoFactor sends a challenge code to the account's channel
func (h *AuthHandlers) RequestTwoFactor(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authSvc.RequestTwoFactorCode(c.Request.Context(), req.Identity); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"message": genericDeliveryMessage}})
}

// ResetPassword issues a temporary password
func (h *AuthHandlers) ResetPassword(c *gin.Context) {
	var req IdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), req.Identity); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"message": genericDeliveryMessage}})
}

// UpdatePassword replaces the password of an account
func (h *AuthHandlers) UpdatePassword(c *gin.Context) {
	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authSvc.UpdatePassword(c.Request.Context(), req.Identity, req.OldPassword, req.NewPassword); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Password updated"}})
}

// Logout revokes the session of the presented token (requires authentication)
func (h *AuthHandlers) Logout(c *gin.Context) {
	token := c.GetString(AccessTokenKey)
	if token == "" {
		RespondError(c, domain.ErrUnauthenticated)
		return
	}

	if err := h.authSvc.RevokeSession(c.Request.Context(), token); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Logged out successfully"}})
}

// Me returns the caller bound to the request (requires authentication)
func (h *AuthHandlers) Me(c *gin.Context) {
	caller, ok := CallerFrom(c)
	if !ok {
		RespondError(c, domain.ErrUnauthenticated)
		return
	}

	menus := caller.MenuIDs
	if menus == nil {
		menus = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"id":         caller.PrincipalID,
			"identity":   caller.Identity,
			"role":       caller.Role,
			"company_id": caller.CompanyID,
			"factory_id": caller.FactoryID,
			"menu_ids":   menus,
		},
	})
}
