package controllers

import (
	"errors"
	"net/http"
	"time"

	service "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/auth"
	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// AuthController handles authentication requests
type AuthController struct {
	authService   *service.AuthService
	refreshTTL    time.Duration
	secureCookies bool
}

func NewAuthController(authService *service.AuthService, refreshTTL time.Duration, secureCookies bool) *AuthController {
	return &AuthController{
		authService:   authService,
		refreshTTL:    refreshTTL,
		secureCookies: secureCookies,
	}
}

func registrationStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrWeakPassword), errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrInvalidRole):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *AuthController) register(c *gin.Context, role string) {
	var req api_models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.Role = role

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		status := registrationStatus(err)
		if status == http.StatusInternalServerError {
			_ = c.Error(err)
			c.JSON(status, gin.H{"error": "registration failed"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       user.UserID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// Register handles self-registration; the role is always user
func (h *AuthController) Register(c *gin.Context) {
	h.register(c, auth_models.RoleUser)
}

// RegisterAdmin lets an admin create another admin
func (h *AuthController) RegisterAdmin(c *gin.Context) {
	h.register(c, auth_models.RoleAdmin)
}

func (h *AuthController) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookie, token, maxAge, "/api/auth", "", h.secureCookies, true)
}

// Login handles user login
func (h *AuthController) Login(c *gin.Context) {
	var req api_models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, tokenPair, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrInvalidCredentials.Error()})
		return
	}

	h.setRefreshCookie(c, tokenPair.RefreshToken, int(h.refreshTTL.Seconds()))
	c.JSON(http.StatusOK, response)
}

// RefreshTokens exchanges the refresh cookie for a new access token
func (h *AuthController) RefreshTokens(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token not found"})
		return
	}

	response, tokenPair, err := h.authService.RefreshTokens(c.Request.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) || errors.Is(err, jwt.ErrInactiveUser) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		respondError(c, err, "user")
		return
	}

	h.setRefreshCookie(c, tokenPair.RefreshToken, int(h.refreshTTL.Seconds()))
	c.JSON(http.StatusOK, response)
}

// Logout clears the refresh cookie
func (h *AuthController) Logout(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile retrieves the authenticated user's profile
func (h *AuthController) Profile(c *gin.Context) {
	userID, err := middleware.GetUserFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ChangePassword updates the caller's password after verifying the current one
func (h *AuthController) ChangePassword(c *gin.Context) {
	userID, err := middleware.GetUserFromGinContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		respondError(c, err, "user")
	}
}

// RegisterRoutes registers the auth routes with Gin
func (h *AuthController) RegisterRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshTokens)
		auth.POST("/logout", h.Logout)
	}

	protected := auth.Group("", authMiddleware.Authenticate())
	{
		protected.GET("/profile", h.Profile)
		protected.PUT("/password", h.ChangePassword)
	}

	adminOnly := auth.Group("", authMiddleware.Authenticate(), authMiddleware.RequireAdmin())
	{
		adminOnly.POST("/register/admin", h.RegisterAdmin)
	}
}
