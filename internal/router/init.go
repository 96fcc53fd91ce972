package router

import (
	"context"

	"github.com/oksasatya/issue-tracker-api/internal/container"
	handlers "github.com/oksasatya/issue-tracker-api/internal/interface/http"
	"github.com/oksasatya/issue-tracker-api/internal/interface/middleware"
	"github.com/oksasatya/issue-tracker-api/internal/router/modules"
)

// InitModules builds the handlers over c and registers every feature module.
// It should be called once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	cfg := c.Config
	svc := c.Services()
	base := handlers.Base{Logger: c.Logger, ShowDetail: cfg.IsDevelopment()}
	auth := middleware.Auth(svc.Auth)
	// applies to every protected route
	apiLimit := middleware.RateLimit(c.Limiter, cfg.APIRateLimit, cfg.APIRateWindow, middleware.KeyByUserID(), nil)

	health := handlers.NewHealthHandler(cfg.Env, healthChecks(c))
	r.Engine.GET("/health", health.Health)

	r.Add(modules.NewHealthModule(health))
	r.Add(&modules.AuthModule{
		Handler: handlers.NewAuthHandler(base, svc.Auth, c.JWT),
		Auth:    auth,
		Public:  middleware.RateLimit(c.Limiter, cfg.AuthRateLimit, cfg.AuthRateWindow, middleware.KeyByIP("auth"), nil),
		Refresh: middleware.RateLimit(c.Limiter, cfg.RefreshRateLimit, cfg.RefreshRateWindow, middleware.KeyByIP("refresh"), nil),
		API:     apiLimit,
	})
	r.Add(modules.NewIssueModule(handlers.NewIssueHandler(base, svc.Issues), auth, apiLimit))
	r.Add(modules.NewCommentModule(handlers.NewCommentHandler(base, svc.Comments), auth, apiLimit))
	r.Add(modules.NewFileModule(handlers.NewFileHandler(base, svc.Files), auth, apiLimit))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(middleware.RateLimit(c.Limiter, cfg.DebugRateLimit, cfg.DebugRateWindow, middleware.KeyByIP("debug"), middleware.AllowPrivateIP())))
	}
}

func healthChecks(c *container.Container) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{"database": handlers.PingFunc(c.PingDB)}
	if c.Redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() })
	}
	if c.Search != nil {
		checks["elasticsearch"] = handlers.PingFunc(c.Search.Ping)
	}
	return checks
}
