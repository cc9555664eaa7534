package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// respondError maps repository sentinels onto HTTP statuses
func respondError(ctx *gin.Context, err error, resource string) {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": resource + " not found"})
	case errors.Is(err, interfaces.ErrConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, interfaces.ErrInvalidReference):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, rbac.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		_ = ctx.Error(err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pagination(ctx *gin.Context) (int, int) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.DefaultQuery("page_size", "50"))
	return page, pageSize
}

// timeQuery parses an optional RFC3339 query parameter
func timeQuery(ctx *gin.Context, name string) (*time.Time, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errors.New(name + " must be an RFC3339 timestamp")
	}
	t = t.UTC()
	return &t, nil
}

// ownership resolves boards and sensors and checks the caller may touch them
type ownership struct {
	boards     interfaces.BoardRepository
	sensors    interfaces.SensorRepository
	authorizer *rbac.Authorizer
}

func (o ownership) board(ctx *gin.Context, boardID string) (*hardware_models.Board, bool) {
	board, err := o.boards.GetBoard(ctx.Request.Context(), boardID)
	if err != nil {
		respondError(ctx, err, "board")
		return nil, false
	}
	if !o.owns(ctx, board.UserID) {
		return nil, false
	}
	return board, true
}

func (o ownership) sensor(ctx *gin.Context, sensorID string) (*hardware_models.Sensor, bool) {
	sensor, err := o.sensors.GetSensor(ctx.Request.Context(), sensorID)
	if err != nil {
		respondError(ctx, err, "sensor")
		return nil, false
	}
	if _, ok := o.board(ctx, sensor.BoardID); !ok {
		return nil, false
	}
	return sensor, true
}

// owns writes a 403 and returns false unless the caller is the owner or an admin
func (o ownership) owns(ctx *gin.Context, ownerID string) bool {
	claims, err := middleware.GetClaimsFromGinContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return false
	}
	if err := o.authorizer.RequireOwnerOrAdmin(claims, ownerID); err != nil {
		respondError(ctx, err, "")
		return false
	}
	return true
}

// scopeUserID returns the user filter for list endpoints: admins may pass ?user_id, others see their own
func scopeUserID(ctx *gin.Context) string {
	claims, err := middleware.GetClaimsFromGinContext(ctx)
	if err != nil {
		return ""
	}
	if claims.Role == auth_models.RoleAdmin {
		return ctx.Query("user_id")
	}
	return claims.UserID
}
