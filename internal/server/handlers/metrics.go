package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler exposes a Prometheus handler, usually
// metrics.Provider.Handler(), on a gin route.
func NewMetricsHandler(h http.Handler) *MetricsHandler {
	return &MetricsHandler{handler: h}
}

func (h *MetricsHandler) ServeMetrics(c *gin.Context) {
	h.handler.ServeHTTP(c.Writer, c.Request)
}
