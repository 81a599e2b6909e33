package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/onboard-api/internal/handler"
	promHandler "github.com/jwalitptl/onboard-api/internal/handler/prometheus"
	"github.com/jwalitptl/onboard-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit      rate.Limit
	RateBurst      int
	MetricsEnabled bool
}

type Router struct {
	engine *gin.Engine
}

func New(matchingH Handler, metricsH *promHandler.Handler, cfg Config) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
	)

	if cfg.RateLimit > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst)
		engine.Use(rl.RateLimit())
	}

	engine.GET("/health", handler.HealthCheck)
	if cfg.MetricsEnabled && metricsH != nil {
		engine.GET("/metrics", metricsH.Handler())
	}

	api := engine.Group("/api/v1")
	matchingH.RegisterRoutes(api)

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
