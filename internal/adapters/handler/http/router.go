package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/adapters/cache"
	"github.com/comitanigiacomo/metime/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/metime/internal/metrics"
)

type RouterDependencies struct {
	HabitHandler     *HabitHandler
	AnalyticsHandler *AnalyticsHandler
	Redis            *redis.Client
	Logger           *zap.Logger
	RateLimit        int
	StartTime        time.Time
}

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Observe(deps.Logger))

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		redisStatus := "disabled"
		statusCode := http.StatusOK
		if deps.Redis != nil {
			redisStatus = "connected"
			if err := cache.Healthy(c.Request.Context(), deps.Redis); err != nil {
				redisStatus = "unreachable"
				statusCode = http.StatusServiceUnavailable
			}
		}

		c.JSON(statusCode, gin.H{
			"status": "ok",
			"redis":  redisStatus,
			"uptime": time.Since(deps.StartTime).String(),
		})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiV1 := router.Group("/api/v1")
	if deps.Redis != nil {
		limit := deps.RateLimit
		if limit <= 0 {
			limit = 100
		}
		apiV1.Use(middleware.RateLimiterMiddleware(deps.Redis, limit, time.Minute, deps.Logger))
	}

	deps.HabitHandler.RegisterRoutes(apiV1)
	deps.AnalyticsHandler.RegisterRoutes(apiV1)

	return router
}
