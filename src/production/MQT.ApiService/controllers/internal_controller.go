package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// TopicIngester stores a reading for whichever sensor owns topic
type TopicIngester interface {
	Ingest(ctx context.Context, topic string, value float64, unit string) (*hardware_models.Reading, error)
}

// InternalController exposes ingestion to trusted services such as protocol gateways
type InternalController struct {
	sensors  interfaces.SensorLookup
	ingester TopicIngester
	secret   string
}

func NewInternalController(sensors interfaces.SensorLookup, ingester TopicIngester, secret string) *InternalController {
	return &InternalController{sensors: sensors, ingester: ingester, secret: secret}
}

type ResolveTopicRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type ResolveTopicResponse struct {
	Exists   bool   `json:"exists"`
	SensorID string `json:"sensor_id,omitempty"`
	BoardID  string `json:"board_id,omitempty"`
}

// InternalReadingRequest mirrors the broker payload plus the topic it arrived on
type InternalReadingRequest struct {
	Topic string   `json:"topic" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
	Unit  string   `json:"unit"`
}

// ResolveTopic reports which sensor, if any, owns a topic
func (c *InternalController) ResolveTopic(ctx *gin.Context) {
	var req ResolveTopicRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	sensor, err := c.sensors.GetSensorByTopic(ctx.Request.Context(), req.Topic)
	if errors.Is(err, interfaces.ErrNotFound) {
		ctx.JSON(http.StatusOK, ResolveTopicResponse{Exists: false})
		return
	}
	if err != nil {
		respondError(ctx, err, "sensor")
		return
	}
	ctx.JSON(http.StatusOK, ResolveTopicResponse{Exists: true, SensorID: sensor.SensorID, BoardID: sensor.BoardID})
}

// CreateReading runs the same path as an MQTT publish
func (c *InternalController) CreateReading(ctx *gin.Context) {
	var req InternalReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	reading, err := c.ingester.Ingest(ctx.Request.Context(), req.Topic, *req.Value, req.Unit)
	switch {
	case errors.Is(err, ingestion.ErrUnknownTopic):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ingestion.ErrInvalidValue):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		respondError(ctx, err, "reading")
	default:
		ctx.JSON(http.StatusCreated, reading)
	}
}

// RegisterRoutes registers the internal API routes
func (c *InternalController) RegisterRoutes(router *gin.Engine) {
	internal := router.Group("/internal", middleware.ServiceAuthMiddleware(c.secret))
	internal.POST("/sensors/resolve", c.ResolveTopic)
	internal.POST("/readings", c.CreateReading)
}
