package handlers

import (
	"net/http"

	"dropspot/internal/cache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *cache.RedisClient
}

func NewHealthHandler(db *gorm.DB, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// Check reports the API's dependencies.
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	redisStatus := "ok"

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "unreachable"
		status = http.StatusServiceUnavailable
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			redisStatus = "unreachable"
			status = http.StatusServiceUnavailable
		}
	} else {
		redisStatus = "not configured"
	}

	c.JSON(status, gin.H{
		"database": dbStatus,
		"redis":    redisStatus,
	})
}
