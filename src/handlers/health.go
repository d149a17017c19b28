package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/hook-expose/src/repositories"
)

var startTime = time.Now()

// HealthHandler handles health check requests
type HealthHandler struct {
	store  repositories.HealthChecker
	driver string
}

// NewHealthHandler creates a new health handler for the given config store
func NewHealthHandler(store repositories.HealthChecker, driver string) *HealthHandler {
	return &HealthHandler{
		store:  store,
		driver: driver,
	}
}

// HandleHealth returns health status with a store check
func (hh *HealthHandler) HandleHealth(c *gin.Context) {
	start := time.Now()
	err := hh.check(c)
	storeLatency := time.Since(start)

	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"store":  "unavailable",
			"driver": hh.driver,
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"store":         "available",
		"driver":        hh.driver,
		"store_latency": storeLatency.String(),
		"uptime":        time.Since(startTime).String(),
	})
}

// HandleInfo returns service information
func (hh *HealthHandler) HandleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "hook-expose",
		"version": "1.0.0",
		"status":  "running",
		"uptime":  time.Since(startTime).String(),
	})
}

// HandleReady returns readiness status (for load balancers)
func (hh *HealthHandler) HandleReady(c *gin.Context) {
	if err := hh.check(c); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ready": false,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ready": true,
	})
}

func (hh *HealthHandler) check(c *gin.Context) error {
	if hh.store == nil {
		return errStoreNotConfigured
	}
	return hh.store.Health(c.Request.Context())
}
