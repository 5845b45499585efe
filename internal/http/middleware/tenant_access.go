package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/http/handlers"
)

// AccessRule tells the tenant access middleware where a route carries its
// entity kind and ids.
type AccessRule struct {
	// Kind is used when KindParam is empty
	Kind domain.EntityKind
	// KindParam names a path parameter holding the kind
	KindParam string
	// Source is one of "path", "query", "header" or "body"
	Source    string
	ParamName string
}

// TenantAccessMW restricts routes to entities of the caller's tenant
type TenantAccessMW struct {
	validator domain.AccessValidator
}

// NewTenantAccessMW creates new tenant access middleware wrapper
func NewTenantAccessMW(validator domain.AccessValidator) *TenantAccessMW {
	return &TenantAccessMW{validator: validator}
}

// Require authorizes the ids named by rule and stores the allowed subset
// under handlers.AllowedIDsKey. It must run after AuthMiddleware.
func (mw *TenantAccessMW) Require(rule AccessRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := handlers.CallerFrom(c)
		if !ok {
			handlers.RespondError(c, domain.ErrUnauthenticated)
			return
		}

		kind := rule.Kind
		if rule.KindParam != "" {
			kind = domain.EntityKind(c.Param(rule.KindParam))
		}
		ids, err := extractIDs(c, rule.Source, rule.ParamName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		allowed, err := mw.validator.Authorize(c.Request.Context(), caller, kind, ids)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}

		c.Set(handlers.AllowedIDsKey, allowed)
		c.Next()
	}
}
