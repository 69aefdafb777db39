package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Backend is what the health endpoints inspect.
type Backend interface {
	ServiceCount() int
	GetCacheStats() map[string]interface{}
}

type HealthHandler struct {
	backend   Backend
	logger    *zap.Logger
	startTime time.Time
}

func NewHealthHandler(backend Backend, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		backend:   backend,
		logger:    logger,
		startTime: time.Now(),
	}
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "alive",
		Uptime: time.Since(h.startTime).String(),
	})
}

// Readiness fails while no weather service is registered.
func (h *HealthHandler) Readiness(c *gin.Context) {
	if h.backend.ServiceCount() == 0 {
		h.logger.Warn("Readiness check failed: no weather services enabled")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Uptime: time.Since(h.startTime).String(),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status: "ready",
		Uptime: time.Since(h.startTime).String(),
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Uptime:    time.Since(h.startTime).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Cache:     h.backend.GetCacheStats(),
	})
}
