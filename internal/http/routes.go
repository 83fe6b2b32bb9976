package http

import (
	"mines_wager/internal/config"
	"mines_wager/internal/http/handlers"
	"mines_wager/internal/http/middleware"
	"mines_wager/internal/service"
	"mines_wager/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// Deps is everything the router needs; Redis is optional
type Deps struct {
	Engine *service.Engine
	Hub    *ws.Hub
	Tokens *service.GuestTokens
	Health *handlers.HealthHandler
	Redis  *redis.Client
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps) {
	h := handlers.NewHandler(deps.Engine)

	// Health checks (no rate limiting)
	r.GET("/health", deps.Health.Health)
	r.GET("/healthz", deps.Health.Liveness)
	r.GET("/readyz", deps.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes; auth runs first so authenticated players are limited per player
	v1 := r.Group("/api/v1")
	v1.Use(middleware.OptionalAuth(deps.Tokens))
	v1.Use(middleware.RateLimit(deps.Redis, cfg.APIRateLimit, cfg.APIRateWindow))
	{
		v1.GET("/history", h.GetHistory)
		v1.GET("/multipliers", h.Multipliers)
	}

	r.GET("/ws", ws.HandleWS(deps.Hub, cfg.AllowedOrigin))
}
