package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/stitts-dev/lineup-optimizer/pkg/cache"
)

const serviceName = "lineup-optimizer"

// HealthStatus is the body of /health and /ready
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// ConnectionCounter reports open progress subscriptions
type ConnectionCounter interface {
	GetConnectionCount() int
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	slates SlateLoader
	cache  cache.Store
	conns  ConnectionCounter
	logger *logrus.Entry
}

// NewHealthHandler creates a new health handler. conns may be nil.
func NewHealthHandler(slates SlateLoader, store cache.Store, conns ConnectionCounter, logger *logrus.Entry) *HealthHandler {
	return &HealthHandler{
		slates: slates,
		cache:  store,
		conns:  conns,
		logger: logger.WithField("handler", "health"),
	}
}

// GetHealth returns the basic health status. A failing cache degrades the
// service but does not take it down since results can always be recomputed.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := HealthStatus{
		Status:    "ok",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if err := h.cache.Ping(c.Request.Context()); err != nil {
		response.Status = "degraded"
		response.Checks["cache"] = "failed: " + err.Error()
		h.logger.WithError(err).Warn("Cache health check failed")
	} else {
		response.Checks["cache"] = "ok"
	}

	c.JSON(http.StatusOK, response)
}

// GetReady reports whether a slate can be served
func (h *HealthHandler) GetReady(c *gin.Context) {
	response := HealthStatus{
		Status:    "ready",
		Service:   serviceName,
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	statusCode := http.StatusOK
	if err := h.slates.Ready(); err != nil {
		response.Status = "not_ready"
		response.Checks["slate"] = "failed: " + err.Error()
		statusCode = http.StatusServiceUnavailable
	} else {
		response.Checks["slate"] = "ok"
	}
	if h.conns != nil {
		response.Checks["websocket_connections"] = strconv.Itoa(h.conns.GetConnectionCount())
	}

	c.JSON(statusCode, response)
}
