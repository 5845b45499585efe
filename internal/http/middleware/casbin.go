package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/http/handlers"
)

// CasbinMW enforces route policies for the caller's role
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer) *CasbinMW {
	return &CasbinMW{enforcer: enforcer}
}

// Enforce returns the casbin authorization middleware. It must run after
// AuthMiddleware.
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := handlers.CallerFrom(c)
		if !ok {
			handlers.RespondError(c, domain.ErrUnauthenticated)
			return
		}

		allowed, err := mw.enforcer.Enforce("role_"+string(caller.Role), c.Request.URL.Path, c.Request.Method)
		if err != nil {
			zap.L().Error("policy enforcement failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Authorization check failed"})
			return
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access Denied"})
			return
		}

		c.Next()
	}
}
