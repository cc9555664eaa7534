package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusReporter reports dependency health
type StatusReporter interface {
	GetHealthStatus(ctx context.Context) map[string]interface{}
}

// HealthController serves liveness, readiness and Prometheus metrics
type HealthController struct {
	status StatusReporter
}

func NewHealthController(status StatusReporter) *HealthController {
	return &HealthController{status: status}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthReady returns 503 while the database is unreachable
func (c *HealthController) HealthReady(ctx *gin.Context) {
	reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	status := c.status.GetHealthStatus(reqCtx)
	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	ctx.JSON(code, status)
}
