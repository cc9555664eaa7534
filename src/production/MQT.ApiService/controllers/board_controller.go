package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	hardware_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/hardware"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// BoardController handles board management requests
type BoardController struct {
	own            ownership
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

func NewBoardController(boards interfaces.BoardRepository, sensors interfaces.SensorRepository, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *BoardController {
	return &BoardController{
		own:            ownership{boards: boards, sensors: sensors, authorizer: authMiddleware.Authorizer()},
		logger:         log,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the board routes with Gin
func (c *BoardController) RegisterRoutes(router *gin.Engine) {
	boards := router.Group("/api/boards", c.authMiddleware.Authenticate())
	{
		boards.POST("", c.CreateBoard)
		boards.GET("", c.ListBoards)
		boards.GET("/:board_id", c.GetBoard)
		boards.PATCH("/:board_id", c.UpdateBoard)
		boards.DELETE("/:board_id", c.DeleteBoard)
		boards.GET("/:board_id/sensors", c.ListSensors)
	}
}

type CreateBoardRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Model       string `json:"model"`
	Image       string `json:"image"`
	// Admins may create boards for another user
	UserID string `json:"user_id,omitempty"`
}

func (c *BoardController) CreateBoard(ctx *gin.Context) {
	var req CreateBoardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := middleware.GetClaimsFromGinContext(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	owner := claims.UserID
	if req.UserID != "" && req.UserID != owner {
		if claims.Role != auth_models.RoleAdmin {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		owner = req.UserID
	}

	board, err := c.own.boards.CreateBoard(ctx.Request.Context(), &hardware_models.Board{
		UserID:      owner,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Model:       req.Model,
		Image:       req.Image,
	})
	if err != nil {
		respondError(ctx, err, "board")
		return
	}

	c.logger.Info().Str("board_id", board.BoardID).Str("user_id", owner).Msg("Board created")
	ctx.JSON(http.StatusCreated, board)
}

// ListBoards returns the caller's boards; admins see all or filter with ?user_id
func (c *BoardController) ListBoards(ctx *gin.Context) {
	page, pageSize := pagination(ctx)
	result, err := c.own.boards.ListBoards(ctx.Request.Context(), scopeUserID(ctx), page, pageSize)
	if err != nil {
		respondError(ctx, err, "board")
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (c *BoardController) GetBoard(ctx *gin.Context) {
	board, ok := c.own.board(ctx, ctx.Param("board_id"))
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, board)
}

type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Model       *string `json:"model,omitempty"`
	Image       *string `json:"image,omitempty"`
}

func (c *BoardController) UpdateBoard(ctx *gin.Context) {
	board, ok := c.own.board(ctx, ctx.Param("board_id"))
	if !ok {
		return
	}

	var req UpdateBoardRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
			return
		}
		board.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		board.Description = *req.Description
	}
	if req.Model != nil {
		board.Model = *req.Model
	}
	if req.Image != nil {
		board.Image = *req.Image
	}

	if err := c.own.boards.UpdateBoard(ctx.Request.Context(), board); err != nil {
		respondError(ctx, err, "board")
		return
	}
	ctx.JSON(http.StatusOK, board)
}

// DeleteBoard removes the board with its sensors, readings and rules
func (c *BoardController) DeleteBoard(ctx *gin.Context) {
	board, ok := c.own.board(ctx, ctx.Param("board_id"))
	if !ok {
		return
	}

	if err := c.own.boards.DeleteBoard(ctx.Request.Context(), board.BoardID); err != nil {
		respondError(ctx, err, "board")
		return
	}

	c.logger.Info().Str("board_id", board.BoardID).Msg("Board deleted")
	ctx.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (c *BoardController) ListSensors(ctx *gin.Context) {
	board, ok := c.own.board(ctx, ctx.Param("board_id"))
	if !ok {
		return
	}

	sensors, err := c.own.sensors.ListSensorsByBoard(ctx.Request.Context(), board.BoardID)
	if err != nil {
		respondError(ctx, err, "sensor")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": sensors})
}
