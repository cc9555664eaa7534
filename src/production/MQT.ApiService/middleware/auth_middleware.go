package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
)

// Key types for request context
type contextKey string

const (
	UserIDContextKey   contextKey = "user_id"
	UserRoleContextKey contextKey = "user_role"
	TokenIDContextKey  contextKey = "token_id"
	ClaimsContextKey   contextKey = "access_claims"
)

// AuthMiddleware provides middleware functions for authentication and authorization
type AuthMiddleware struct {
	jwtService *jwt.Service
	authorizer *rbac.Authorizer
	config     Config
}

// Config holds middleware configuration
type Config struct {
	AccessTokenHeader string
	// Optional cookie fallback when the header is absent
	AccessTokenCookie string
}

func DefaultConfig() Config {
	return Config{
		AccessTokenHeader: "Authorization",
		AccessTokenCookie: "access_token",
	}
}

func NewAuthMiddleware(jwtService *jwt.Service, rbacService *rbac.Service, config Config) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		authorizer: rbac.NewAuthorizer(rbacService),
		config:     config,
	}
}

// Authorizer exposes the ownership checks used by controllers
func (m *AuthMiddleware) Authorizer() *rbac.Authorizer {
	return m.authorizer
}

// extractToken gets a token from either header or cookie
func extractToken(r *http.Request, headerName, cookieName string) string {
	if token := r.Header.Get(headerName); token != "" {
		return strings.TrimPrefix(token, "Bearer ")
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// Authenticate verifies the access token and stores its claims on the context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken := extractToken(c.Request, m.config.AccessTokenHeader, m.config.AccessTokenCookie)
		if accessToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims, err := m.jwtService.ValidateAccessToken(accessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
			return
		}

		c.Set(string(ClaimsContextKey), claims)
		c.Set(string(UserIDContextKey), claims.UserID)
		c.Set(string(UserRoleContextKey), claims.Role)
		c.Set(string(TokenIDContextKey), claims.TokenID)

		c.Next()
	}
}

// RequireAdmin must run after Authenticate
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := GetClaimsFromGinContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		if err := m.authorizer.RequireAdmin(claims); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// GetClaimsFromGinContext returns the claims stored by Authenticate
func GetClaimsFromGinContext(c *gin.Context) (*api_models.AccessClaims, error) {
	v, exists := c.Get(string(ClaimsContextKey))
	if !exists {
		return nil, errors.New("claims not found in context")
	}
	claims, ok := v.(*api_models.AccessClaims)
	if !ok {
		return nil, errors.New("invalid claims format in context")
	}
	return claims, nil
}

// GetUserFromGinContext retrieves user ID from Gin context
func GetUserFromGinContext(c *gin.Context) (string, error) {
	claims, err := GetClaimsFromGinContext(c)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
