package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/safetyauth/domain"
	"github.com/you/safetyauth/internal/http/handlers"
)

// AuthMiddleware binds the caller from the bearer token. Handlers read the
// caller with handlers.CallerFrom; nothing in the request can override it.
func AuthMiddleware(binder domain.IdentityBinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			handlers.RespondError(c, domain.ErrUnauthenticated)
			return
		}

		caller, err := binder.CurrentCaller(c.Request.Context(), token)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}

		c.Set(handlers.CallerKey, caller)
		c.Set(handlers.AccessTokenKey, token)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
