package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// SensorController handles sensor management requests
type SensorController struct {
	own            ownership
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

func NewSensorController(boards interfaces.BoardRepository, sensors interfaces.SensorRepository, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *SensorController {
	return &SensorController{
		own:            ownership{boards: boards, sensors: sensors, authorizer: authMiddleware.Authorizer()},
		logger:         log,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the sensor routes with Gin
func (c *SensorController) RegisterRoutes(router *gin.Engine) {
	sensors := router.Group("/api/sensors", c.authMiddleware.Authenticate())
	{
		sensors.POST("", c.CreateSensor)
		sensors.GET("/:sensor_id", c.GetSensor)
		sensors.PATCH("/:sensor_id", c.UpdateSensor)
		sensors.DELETE("/:sensor_id", c.DeleteSensor)
	}
}

// validateTopic rejects topics a device could not publish to
func validateTopic(topic string) error {
	switch {
	case topic == "":
		return errors.New("topic is required")
	case strings.ContainsAny(topic, "+#"):
		return errors.New("topic must not contain wildcards")
	case strings.HasPrefix(topic, "$"):
		return errors.New("topic must not start with $")
	case strings.ContainsRune(topic, 0):
		return errors.New("topic must not contain NUL")
	}
	return nil
}

type CreateSensorRequest struct {
	BoardID string `json:"board_id" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Pin     *int   `json:"pin" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Topic   string `json:"topic" binding:"required"`
	Image   string `json:"image"`
}

func (c *SensorController) CreateSensor(ctx *gin.Context) {
	var req CreateSensorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sensorType, err := hardware_models.ParseSensorType(req.Type)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateTopic(req.Topic); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Pin < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "pin must not be negative"})
		return
	}

	board, ok := c.own.board(ctx, req.BoardID)
	if !ok {
		return
	}

	sensor, err := c.own.sensors.CreateSensor(ctx.Request.Context(), &hardware_models.Sensor{
		BoardID: board.BoardID,
		Name:    strings.TrimSpace(req.Name),
		Pin:     *req.Pin,
		Type:    sensorType,
		Topic:   req.Topic,
		Image:   req.Image,
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "topic already in use"})
			return
		}
		respondError(ctx, err, "sensor")
		return
	}

	c.logger.Info().Str("sensor_id", sensor.SensorID).Str("topic", sensor.Topic).Msg("Sensor created")
	ctx.JSON(http.StatusCreated, sensor)
}

func (c *SensorController) GetSensor(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, sensor)
}

type UpdateSensorRequest struct {
	Name  *string `json:"name,omitempty"`
	Pin   *int    `json:"pin,omitempty"`
	Type  *string `json:"type,omitempty"`
	Topic *string `json:"topic,omitempty"`
	Image *string `json:"image,omitempty"`
}

func (c *SensorController) UpdateSensor(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}

	var req UpdateSensorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		sensor.Name = strings.TrimSpace(*req.Name)
	}
	if req.Pin != nil {
		if *req.Pin < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "pin must not be negative"})
			return
		}
		sensor.Pin = *req.Pin
	}
	if req.Type != nil {
		t, err := hardware_models.ParseSensorType(*req.Type)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sensor.Type = t
	}
	if req.Topic != nil {
		if err := validateTopic(*req.Topic); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sensor.Topic = *req.Topic
	}
	if req.Image != nil {
		sensor.Image = *req.Image
	}

	if err := c.own.sensors.UpdateSensor(ctx.Request.Context(), sensor); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			ctx.JSON(http.StatusConflict, gin.H{"error": "topic already in use"})
			return
		}
		respondError(ctx, err, "sensor")
		return
	}
	ctx.JSON(http.StatusOK, sensor)
}

// DeleteSensor removes the sensor with its readings and rules
func (c *SensorController) DeleteSensor(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}

	if err := c.own.sensors.DeleteSensor(ctx.Request.Context(), sensor.SensorID); err != nil {
		respondError(ctx, err, "sensor")
		return
	}

	c.logger.Info().Str("sensor_id", sensor.SensorID).Msg("Sensor deleted")
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
