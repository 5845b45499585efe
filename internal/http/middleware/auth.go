package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
)

// AuthMW wraps the identity binder for middleware
type AuthMW struct {
	binder domain.IdentityBinder
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(binder domain.IdentityBinder) *AuthMW {
	return &AuthMW{binder: binder}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.binder)
}
