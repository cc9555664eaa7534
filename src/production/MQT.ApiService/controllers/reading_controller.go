package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// ReadingRecorder stores a reading for a known sensor and notifies listeners
type ReadingRecorder interface {
	Record(ctx context.Context, sensor hardware_models.Sensor, value float64, unit string) (*hardware_models.Reading, error)
	RecordBatch(ctx context.Context, sensor hardware_models.Sensor, samples []ingestion.Sample) ([]hardware_models.Reading, error)
}

// maxBatchSize bounds one batch upload
const maxBatchSize = 1000

// ReadingController serves a sensor's time series
type ReadingController struct {
	own            ownership
	readingRepo    interfaces.ReadingRepository
	recorder       ReadingRecorder
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

func NewReadingController(
	readingRepo interfaces.ReadingRepository,
	boards interfaces.BoardRepository,
	sensors interfaces.SensorRepository,
	recorder ReadingRecorder,
	log *logger.Logger,
	authMiddleware *middleware.AuthMiddleware,
) *ReadingController {
	return &ReadingController{
		own:            ownership{boards: boards, sensors: sensors, authorizer: authMiddleware.Authorizer()},
		readingRepo:    readingRepo,
		recorder:       recorder,
		logger:         log,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the reading routes with Gin
func (c *ReadingController) RegisterRoutes(router *gin.Engine) {
	sensor := router.Group("/api/sensors/:sensor_id/readings", c.authMiddleware.Authenticate())
	{
		sensor.GET("", c.GetReadings)
		sensor.GET("/latest", c.GetLatestReadings)
		sensor.GET("/summary", c.GetSummary)
		sensor.POST("", c.CreateReading)
		sensor.POST("/batch", c.CreateReadingBatch)
	}

	admin := router.Group("/api/readings", c.authMiddleware.Authenticate(), c.authMiddleware.RequireAdmin())
	{
		admin.DELETE("", c.DeleteReadings)
	}
}

// queryParams reads from/to/limit/page shared by the list and summary endpoints
func queryParams(ctx *gin.Context, sensorID string) (interfaces.ReadingQueryParams, bool) {
	params := interfaces.ReadingQueryParams{SensorID: sensorID}
	var err error
	if params.From, err = timeQuery(ctx, "from"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return params, false
	}
	if params.To, err = timeQuery(ctx, "to"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return params, false
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return params, false
	}
	params.Page, params.Limit = pagination(ctx)
	if raw := ctx.Query("limit"); raw != "" {
		params.Limit, _ = strconv.Atoi(raw)
	}
	return params, true
}

// GetReadings pages through readings newest first
func (c *ReadingController) GetReadings(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}
	params, ok := queryParams(ctx, sensor.SensorID)
	if !ok {
		return
	}

	result, err := c.readingRepo.GetReadings(ctx.Request.Context(), params)
	if err != nil {
		respondError(ctx, err, "reading")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *ReadingController) GetLatestReadings(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "1"))
	if err != nil || limit < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	readings, err := c.readingRepo.GetLatestReadings(ctx.Request.Context(), sensor.SensorID, limit)
	if err != nil {
		respondError(ctx, err, "reading")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": readings})
}

// GetSummary returns count/min/max/avg over the optional window
func (c *ReadingController) GetSummary(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}
	params, ok := queryParams(ctx, sensor.SensorID)
	if !ok {
		return
	}

	stats, err := c.readingRepo.GetSummaryStats(ctx.Request.Context(), params)
	if err != nil {
		respondError(ctx, err, "reading")
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

type CreateReadingRequest struct {
	Value *float64 `json:"value" binding:"required"`
	Unit  string   `json:"unit"`
}

// CreateReading records a manual reading; alert rules are evaluated as for broker traffic
func (c *ReadingController) CreateReading(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}

	var req CreateReadingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reading, err := c.recorder.Record(ctx.Request.Context(), *sensor, *req.Value, req.Unit)
	if err != nil {
		if errors.Is(err, ingestion.ErrInvalidValue) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(ctx, err, "reading")
		return
	}
	ctx.JSON(http.StatusCreated, reading)
}

type CreateReadingBatchRequest struct {
	Readings []CreateReadingRequest `json:"readings" binding:"required,min=1,dive"`
}

// CreateReadingBatch stores buffered values in one transaction; alert rules run for each
func (c *ReadingController) CreateReadingBatch(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}

	var req CreateReadingBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Readings) > maxBatchSize {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "at most " + strconv.Itoa(maxBatchSize) + " readings per batch"})
		return
	}

	samples := make([]ingestion.Sample, len(req.Readings))
	for i, r := range req.Readings {
		samples[i] = ingestion.Sample{Value: *r.Value, Unit: r.Unit}
	}

	stored, err := c.recorder.RecordBatch(ctx.Request.Context(), *sensor, samples)
	if err != nil {
		if errors.Is(err, ingestion.ErrInvalidValue) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(ctx, err, "reading")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"items": stored, "count": len(stored)})
}

// DeleteReadings purges readings in [from, to], optionally for one sensor_id
func (c *ReadingController) DeleteReadings(ctx *gin.Context) {
	from, err := timeQuery(ctx, "from")
	if err == nil && from == nil {
		err = errors.New("from is required")
	}
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := timeQuery(ctx, "to")
	if err == nil && to == nil {
		err = errors.New("to is required")
	}
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if to.Before(*from) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	sensorID := ctx.Query("sensor_id")
	deleted, err := c.readingRepo.DeleteReadingsByTimeRange(ctx.Request.Context(), sensorID, *from, *to)
	if err != nil {
		respondError(ctx, err, "reading")
		return
	}

	c.logger.Info().Str("sensor_id", sensorID).Time("from", *from).Time("to", *to).Int64("deleted", deleted).Msg("Readings purged")
	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
