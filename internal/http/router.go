package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/safetyauth/internal/http/handlers"
	"github.com/you/safetyauth/internal/http/middleware"
)

// Middlewares groups the middleware wrappers the router needs
type Middlewares struct {
	Auth    *middleware.AuthMW
	Casbin  *middleware.CasbinMW
	Tenant  *middleware.TenantAccessMW
	Limiter *middleware.RateLimiter
	Logger  *zap.Logger
}

func BuildRouter(ah *handlers.AuthHandlers, ph *handlers.PolicyHandlers, xh *handlers.AccessHandlers, mw Middlewares) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(mw.Logger))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	public := r.Group("/auth")
	public.Use(mw.Limiter.Handler())
	public.POST("/login", ah.Login)
	public.POST("/refresh", ah.Refresh)
	public.POST("/2fa/request", ah.RequestTwoFactor)
	public.POST("/password/reset", ah.ResetPassword)
	public.PUT("/password", ah.UpdatePassword)

	v := r.Group("/")
	v.Use(mw.Auth.WithJWT())
	v.GET("/auth/me", ah.Me)
	v.POST("/auth/logout", ah.Logout)
	v.POST("/access/authorize", xh.Authorize)
	v.GET("/scope/:kind", mw.Tenant.Require(middleware.AccessRule{
		KindParam: "kind",
		Source:    "query",
		ParamName: "ids",
	}), xh.Scope)

	adm := r.Group("/admin")
	adm.Use(mw.Auth.WithJWT(), mw.Casbin.Enforce())
	adm.GET("/menus", ph.List)
	adm.POST("/menus", ph.Add)
	adm.DELETE("/menus", ph.Remove)

	return r
}
