package handler

import (
	"context"
	"net/http"
	"time"

	"tillpoint/internal/infra"
	"tillpoint/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity plus the image-store breaker state and the
// summary DLQ depth; never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, imageStoreCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		// Parked summary jobs surface here so operators notice exhausted
		// deliveries without digging through redis.
		dlqDepth := int64(0)
		for _, q := range []string{worker.QueueReport, worker.QueueEmail} {
			if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
				dlqDepth += n
			}
		}

		c.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"image_store": imageStoreCB.State().String(),
			"dlq_depth":   dlqDepth,
		})
	}
}
