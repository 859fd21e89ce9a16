package middleware

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestRedis(t *testing.T) *redis.Client {
	_ = godotenv.Load("../../../../../.env")

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       1,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test (Redis down): %v", err)
	}

	rdb.FlushDB(ctx)
	return rdb
}

func limitedRouter(rdb *redis.Client, limit int, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RateLimiterMiddleware(rdb, limit, time.Minute, logger))
	router.GET("/habits", func(c *gin.Context) {
		c.String(http.StatusOK, "passed")
	})
	return router
}

func getFrom(router *gin.Engine, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/habits", nil)
	req.RemoteAddr = ip + ":40000"
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiterMiddleware_Integration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := setupTestRedis(t)
	defer rdb.Close()

	ctx := context.Background()

	t.Run("Allow requests under limit", func(t *testing.T) {
		rdb.FlushDB(ctx)
		limit := 5
		router := limitedRouter(rdb, limit, nil)

		for i := 1; i <= limit; i++ {
			w := getFrom(router, "192.168.1.100")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, strconv.Itoa(limit), w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, strconv.Itoa(limit-i), w.Header().Get("X-RateLimit-Remaining"))
			assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
		}
	})

	t.Run("Block requests over limit", func(t *testing.T) {
		rdb.FlushDB(ctx)
		router := limitedRouter(rdb, 2, nil)

		assert.Equal(t, http.StatusOK, getFrom(router, "192.168.1.101").Code)
		assert.Equal(t, http.StatusOK, getFrom(router, "192.168.1.101").Code)

		blocked := getFrom(router, "192.168.1.101")
		assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
		assert.Contains(t, blocked.Body.String(), "too many requests")
		assert.Equal(t, "0", blocked.Header().Get("X-RateLimit-Remaining"))

		assert.Equal(t, http.StatusOK, getFrom(router, "192.168.1.102").Code, "other clients keep their own budget")
	})

	t.Run("Keys expire with the window", func(t *testing.T) {
		rdb.FlushDB(ctx)
		router := limitedRouter(rdb, 10, nil)
		getFrom(router, "10.0.0.1")

		ttl, err := rdb.TTL(ctx, "metime:rate_limit:10.0.0.1").Result()
		assert.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})
}

func TestRateLimiterMiddleware_FailOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	badRdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer badRdb.Close()

	core, logs := observer.New(zap.WarnLevel)
	router := limitedRouter(badRdb, 1, zap.New(core))

	for i := 0; i < 3; i++ {
		w := getFrom(router, "192.168.1.200")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "passed", w.Body.String())
	}
	assert.Equal(t, 3, logs.FilterMessage("rate limiter skipped").Len())
}
