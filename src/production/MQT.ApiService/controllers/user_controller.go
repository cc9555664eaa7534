package controllers

import (
	"errors"
	"net/http"

	service "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/auth"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"

	"github.com/gin-gonic/gin"
)

// UserController handles admin user management requests
type UserController struct {
	userService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{userService: userService}
}

// RegisterRoutes registers the user routes with Gin
func (h *UserController) RegisterRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	users := router.Group("/api/users", authMiddleware.Authenticate(), authMiddleware.RequireAdmin())
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUserByID)
		users.PUT("/:id/role", h.UpdateUserRole)
		users.PUT("/:id/active", h.SetActive)
		users.DELETE("/:id", h.DeleteUser)
	}
}

// ListUsers pages through users; ?role filters
func (h *UserController) ListUsers(c *gin.Context) {
	page, pageSize := pagination(c)
	result, err := h.userService.ListUsers(c.Request.Context(), page, pageSize, c.Query("role"))
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *UserController) GetUserByID(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserController) UpdateUserRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateUserRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetActive enables or disables a login
func (h *UserController) SetActive(c *gin.Context) {
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes the user together with everything they own
func (h *UserController) DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	if current, _ := middleware.GetUserFromGinContext(c); current == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID); err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted successfully"})
}
