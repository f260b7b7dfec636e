package handler

import (
	"context"
	"net/http"
	"time"

	"gmrstock/internal/docstore"
	"gmrstock/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Health returns a JSON health check response.
// Checks the document store and Redis; never exposes credentials or internals.
// A nil rdb means Redis is not configured and is reported as "disabled".
func Health(store docstore.Store, rdb *redis.Client, cb *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		storeStatus := "connected"
		if store.Ping(ctx) != nil {
			storeStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			}
		}

		cbState := "closed"
		if cb != nil {
			cbState = cb.State().String()
		}

		status := http.StatusOK
		if storeStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":              status == http.StatusOK,
			"store":           storeStatus,
			"redis":           redisStatus,
			"circuit_breaker": cbState,
		})
	}
}
