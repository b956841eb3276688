package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/producerecipe/cache"
	"github.com/use-agent/producerecipe/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports degraded when no class table is loaded, since classification and
// everything downstream of it is then unavailable.
func Health(classes int, cc *cache.Cache, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		if classes == 0 {
			status = "degraded"
		}

		entries := 0
		if cc != nil {
			entries = cc.Len()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			Classes:      classes,
			CacheEntries: entries,
			Version:      Version,
		})
	}
}
