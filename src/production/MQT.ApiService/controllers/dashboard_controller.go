package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	dashboard_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/dashboard"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// DashboardController manages saved sensor groupings
type DashboardController struct {
	own            ownership
	dashboards     interfaces.DashboardRepository
	authMiddleware *middleware.AuthMiddleware
}

func NewDashboardController(
	dashboards interfaces.DashboardRepository,
	boards interfaces.BoardRepository,
	sensors interfaces.SensorRepository,
	authMiddleware *middleware.AuthMiddleware,
) *DashboardController {
	return &DashboardController{
		own:            ownership{boards: boards, sensors: sensors, authorizer: authMiddleware.Authorizer()},
		dashboards:     dashboards,
		authMiddleware: authMiddleware,
	}
}

func (c *DashboardController) RegisterRoutes(router *gin.Engine) {
	dashboards := router.Group("/api/dashboards", c.authMiddleware.Authenticate())
	{
		dashboards.POST("", c.CreateDashboard)
		dashboards.GET("", c.ListDashboards)
		dashboards.GET("/:dashboard_id", c.GetDashboard)
		dashboards.PUT("/:dashboard_id", c.UpdateDashboard)
		dashboards.DELETE("/:dashboard_id", c.DeleteDashboard)
	}
}

type DashboardRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	SensorIDs   []string `json:"sensor_ids"`
}

// sensorsAccessible checks every referenced sensor exists and belongs to the caller
func (c *DashboardController) sensorsAccessible(ctx *gin.Context, ids []string) bool {
	for _, id := range ids {
		if _, ok := c.own.sensor(ctx, id); !ok {
			return false
		}
	}
	return true
}

func (c *DashboardController) CreateDashboard(ctx *gin.Context) {
	var req DashboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, err := middleware.GetUserFromGinContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if !c.sensorsAccessible(ctx, req.SensorIDs) {
		return
	}

	d, err := c.dashboards.CreateDashboard(ctx.Request.Context(), &dashboard_models.Dashboard{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		SensorIDs:   req.SensorIDs,
	})
	if err != nil {
		respondError(ctx, err, "dashboard")
		return
	}
	ctx.JSON(http.StatusCreated, d)
}

func (c *DashboardController) ListDashboards(ctx *gin.Context) {
	items, err := c.dashboards.ListDashboards(ctx.Request.Context(), scopeUserID(ctx))
	if err != nil {
		respondError(ctx, err, "dashboard")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (c *DashboardController) dashboard(ctx *gin.Context) (*dashboard_models.Dashboard, bool) {
	d, err := c.dashboards.GetDashboard(ctx.Request.Context(), ctx.Param("dashboard_id"))
	if err != nil {
		respondError(ctx, err, "dashboard")
		return nil, false
	}
	if !c.own.owns(ctx, d.UserID) {
		return nil, false
	}
	return d, true
}

func (c *DashboardController) GetDashboard(ctx *gin.Context) {
	d, ok := c.dashboard(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (c *DashboardController) UpdateDashboard(ctx *gin.Context) {
	d, ok := c.dashboard(ctx)
	if !ok {
		return
	}

	var req DashboardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !c.sensorsAccessible(ctx, req.SensorIDs) {
		return
	}

	d.Name = strings.TrimSpace(req.Name)
	d.Description = req.Description
	d.SensorIDs = req.SensorIDs
	if err := c.dashboards.UpdateDashboard(ctx.Request.Context(), d); err != nil {
		respondError(ctx, err, "dashboard")
		return
	}
	ctx.JSON(http.StatusOK, d)
}

func (c *DashboardController) DeleteDashboard(ctx *gin.Context) {
	d, ok := c.dashboard(ctx)
	if !ok {
		return
	}
	if err := c.dashboards.DeleteDashboard(ctx.Request.Context(), d.DashboardID); err != nil {
		respondError(ctx, err, "dashboard")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}
