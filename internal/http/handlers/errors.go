package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/safetyauth/domain"
)

// Context keys set by the authentication middleware
const (
	CallerKey      = "caller"
	AccessTokenKey = "access_token"
	AllowedIDsKey  = "allowed_ids"
)

var blockedCodes = []struct {
	err  error
	code domain.AccountStatus
}{
	{domain.ErrAccountLocked, domain.StatusLocked},
	{domain.ErrPasswordResetRequired, domain.StatusPasswordReset},
	{domain.ErrAccountInactive, domain.StatusInactive},
	{domain.ErrAccountSuspended, domain.StatusSuspended},
	{domain.ErrAccountWithdrawn, domain.StatusWithdrawn},
	{domain.ErrAccountDeleted, domain.StatusDeleted},
}

// RespondError writes the HTTP form of a core error and aborts the chain.
// Bodies never carry internal error text.
func RespondError(c *gin.Context, err error) {
	var limited *domain.RateLimitedError
	switch {
	case errors.As(err, &limited):
		secs := int(math.Ceil(limited.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "retry_after": secs})
	case errors.Is(err, domain.ErrRateLimited):
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
	case errors.Is(err, domain.ErrAccountBlocked):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account blocked", "code": blockedCode(err)})
	case errors.Is(err, domain.ErrTwoFactorRequired):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Two-factor code required", "code": "TWO_FACTOR_REQUIRED"})
	case errors.Is(err, domain.ErrBadCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrEntityNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, domain.ErrUnknownEntity):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unknown entity kind"})
	case errors.Is(err, domain.ErrWeakPassword):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Password does not meet policy"})
	default:
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func blockedCode(err error) domain.AccountStatus {
	for _, b := range blockedCodes {
		if errors.Is(err, b.err) {
			return b.code
		}
	}
	return "BLOCKED"
}

// CallerFrom returns the caller bound by the authentication middleware
func CallerFrom(c *gin.Context) (domain.CallerIdentity, bool) {
	v, ok := c.Get(CallerKey)
	if !ok {
		return domain.CallerIdentity{}, false
	}
	caller, ok := v.(domain.CallerIdentity)
	return caller, ok
}

// AllowedIDsFrom returns the ids kept by the tenant access middleware
func AllowedIDsFrom(c *gin.Context) []uint {
	v, _ := c.Get(AllowedIDsKey)
	ids, _ := v.([]uint)
	return ids
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
