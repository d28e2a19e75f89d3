package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/models"
)

// HealthProbe reports the status of one or more backing services, keyed by name.
type HealthProbe func(ctx context.Context) map[string]string

type HealthHandler struct {
	probes []HealthProbe
}

func NewHealthHandler(probes ...HealthProbe) *HealthHandler {
	return &HealthHandler{probes: probes}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	services := make(map[string]string)
	for _, probe := range h.probes {
		for name, status := range probe(c.Request.Context()) {
			services[name] = status
		}
	}

	overall := overallHealth(services)
	statusCode := http.StatusOK
	if overall == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == "healthy",
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

// overallHealth is unhealthy when the database is down and degraded when any
// other service is.
func overallHealth(services map[string]string) string {
	overall := "healthy"
	for name, status := range services {
		if status == "healthy" || status == "not configured" {
			continue
		}
		if name == "database" {
			return "unhealthy"
		}
		overall = "degraded"
	}
	return overall
}
