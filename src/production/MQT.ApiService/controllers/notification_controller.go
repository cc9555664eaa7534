package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	alerting_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/alerting"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// NotificationController manages alert rules
type NotificationController struct {
	own            ownership
	rules          interfaces.AlertRuleRepository
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

func NewNotificationController(
	rules interfaces.AlertRuleRepository,
	boards interfaces.BoardRepository,
	sensors interfaces.SensorRepository,
	log *logger.Logger,
	authMiddleware *middleware.AuthMiddleware,
) *NotificationController {
	return &NotificationController{
		own:            ownership{boards: boards, sensors: sensors, authorizer: authMiddleware.Authorizer()},
		rules:          rules,
		logger:         log,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the notification routes with Gin
func (c *NotificationController) RegisterRoutes(router *gin.Engine) {
	rules := router.Group("/api/notifications", c.authMiddleware.Authenticate())
	{
		rules.POST("", c.CreateRule)
		rules.GET("", c.ListRules)
		rules.GET("/:rule_id", c.GetRule)
		rules.PUT("/:rule_id", c.UpdateRule)
		rules.DELETE("/:rule_id", c.DeleteRule)
	}
	router.GET("/api/sensors/:sensor_id/notifications", c.authMiddleware.Authenticate(), c.ListSensorRules)
}

type RuleRequest struct {
	SensorID  string   `json:"sensor_id" binding:"required"`
	Name      string   `json:"name" binding:"required"`
	Message   string   `json:"message"`
	Threshold *float64 `json:"threshold" binding:"required"`
	Condition string   `json:"condition" binding:"required"`
	Channel   string   `json:"channel" binding:"required"`
	Address   string   `json:"address" binding:"required"`
}

// toRule normalises condition and channel spellings and validates the result
func (r RuleRequest) toRule(rule *alerting_models.AlertRule) error {
	condition, err := alerting_models.ParseCondition(r.Condition)
	if err != nil {
		return err
	}
	channel, err := alerting_models.ParseChannel(r.Channel)
	if err != nil {
		return err
	}

	rule.SensorID = r.SensorID
	rule.Name = strings.TrimSpace(r.Name)
	rule.Message = r.Message
	rule.Threshold = *r.Threshold
	rule.Condition = condition
	rule.Channel = channel
	rule.Address = strings.TrimSpace(r.Address)
	if rule.Message == "" {
		rule.Message = rule.Name
	}
	return rule.Validate()
}

func (c *NotificationController) CreateRule(ctx *gin.Context) {
	var req RuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := middleware.GetUserFromGinContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rule := &alerting_models.AlertRule{UserID: userID}
	if err := req.toRule(rule); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := c.own.sensor(ctx, rule.SensorID); !ok {
		return
	}

	created, err := c.rules.CreateRule(ctx.Request.Context(), rule)
	if err != nil {
		respondError(ctx, err, "notification")
		return
	}

	c.logger.Info().Str("rule_id", created.RuleID).Str("sensor_id", created.SensorID).Str("channel", string(created.Channel)).Msg("Alert rule created")
	ctx.JSON(http.StatusCreated, created)
}

// ListRules returns the caller's rules; admins see all or filter with ?user_id
func (c *NotificationController) ListRules(ctx *gin.Context) {
	rules, err := c.rules.ListRules(ctx.Request.Context(), scopeUserID(ctx))
	if err != nil {
		respondError(ctx, err, "notification")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": rules})
}

// ListSensorRules returns every rule bound to a sensor in evaluation order
func (c *NotificationController) ListSensorRules(ctx *gin.Context) {
	sensor, ok := c.own.sensor(ctx, ctx.Param("sensor_id"))
	if !ok {
		return
	}
	rules, err := c.rules.ListRulesBySensor(ctx.Request.Context(), sensor.SensorID)
	if err != nil {
		respondError(ctx, err, "notification")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": rules})
}

func (c *NotificationController) rule(ctx *gin.Context) (*alerting_models.AlertRule, bool) {
	rule, err := c.rules.GetRule(ctx.Request.Context(), ctx.Param("rule_id"))
	if err != nil {
		respondError(ctx, err, "notification")
		return nil, false
	}
	if !c.own.owns(ctx, rule.UserID) {
		return nil, false
	}
	return rule, true
}

func (c *NotificationController) GetRule(ctx *gin.Context) {
	rule, ok := c.rule(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, rule)
}

func (c *NotificationController) UpdateRule(ctx *gin.Context) {
	rule, ok := c.rule(ctx)
	if !ok {
		return
	}

	var req RuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.toRule(rule); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := c.own.sensor(ctx, rule.SensorID); !ok {
		return
	}

	if err := c.rules.UpdateRule(ctx.Request.Context(), rule); err != nil {
		respondError(ctx, err, "notification")
		return
	}
	ctx.JSON(http.StatusOK, rule)
}

func (c *NotificationController) DeleteRule(ctx *gin.Context) {
	rule, ok := c.rule(ctx)
	if !ok {
		return
	}
	if err := c.rules.DeleteRule(ctx.Request.Context(), rule.RuleID); err != nil {
		respondError(ctx, err, "notification")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
