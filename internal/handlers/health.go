package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "product-import-service"

// CacheReporter exposes product cache statistics; nil stats mean caching is off
type CacheReporter interface {
	CacheStats() *cache.CacheStats
}

type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	cache CacheReporter
}

// NewHealthHandler creates health endpoints. redis and cache may be nil.
func NewHealthHandler(db *gorm.DB, redis *redis.Client, cache CacheReporter) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, cache: cache}
}

// HealthCheck provides a health check endpoint
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck reports whether the database and session store are reachable
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			checks["database"] = "unavailable"
			ready = false
		} else {
			checks["database"] = "connected"
		}
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
			ready = false
		} else {
			checks["redis"] = "connected"
		}
	} else {
		checks["redis"] = "memory"
	}

	if h.cache != nil {
		if stats := h.cache.CacheStats(); stats != nil {
			checks["cache"] = stats
		}
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"service":   serviceName,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
