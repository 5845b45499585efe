package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/you/safetyauth/internal/config"
	httpx "github.com/you/safetyauth/internal/http"
	"github.com/you/safetyauth/internal/http/handlers"
	"github.com/you/safetyauth/internal/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// Router builds the HTTP handler over the container's services
func (c *Container) Router() *gin.Engine {
	r := httpx.BuildRouter(
		handlers.NewAuthHandlers(c.AuthSvc),
		handlers.NewPolicyHandlers(c.PolicySvc),
		handlers.NewAccessHandlers(c.Validator),
		httpx.Middlewares{
			Auth:    middleware.NewAuthMW(c.Binder),
			Casbin:  middleware.NewCasbinMW(c.PolicySvc.Enforcer()),
			Tenant:  middleware.NewTenantAccessMW(c.Validator),
			Limiter: middleware.NewRateLimiter(c.Config.RateLimitRPM),
			Logger:  c.Logger,
		},
	)
	r.HandleMethodNotAllowed = true
	r.ForwardedByClientIP = true
	return r
}

// Run serves HTTP and runs the sweeper until ctx is done, then shuts both
// down.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.L()
	}
	gin.SetMode(cfg.GinMode)

	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close resources", zap.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return c.Sweeper.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
