package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	service "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/auth"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	ingestion "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Ingestion"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// Dependencies collects everything the HTTP layer is built from
type Dependencies struct {
	Config         *config.Config
	Logger         *logger.Logger
	AuthService    *service.AuthService
	UserService    *service.UserService
	AuthMiddleware *middleware.AuthMiddleware
	Boards         interfaces.BoardRepository
	Sensors        interfaces.SensorRepository
	Readings       interfaces.ReadingRepository
	AlertRules     interfaces.AlertRuleRepository
	Dashboards     interfaces.DashboardRepository
	Writer         *ingestion.Writer
	Health         StatusReporter
}

// NewRouter builds the gin engine with middleware and every route registered
func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORS.AllowedOrigins,
		AllowMethods:     d.Config.CORS.AllowedMethods,
		AllowHeaders:     d.Config.CORS.AllowedHeaders,
		ExposeHeaders:    d.Config.CORS.ExposedHeaders,
		AllowCredentials: d.Config.CORS.AllowCredentials,
		MaxAge:           time.Duration(d.Config.CORS.MaxAge) * time.Second,
	}))

	NewAuthController(d.AuthService, d.Config.Auth.RefreshTokenDuration, d.Config.Auth.SecureCookies).RegisterRoutes(router, d.AuthMiddleware)
	NewUserController(d.UserService).RegisterRoutes(router, d.AuthMiddleware)
	NewBoardController(d.Boards, d.Sensors, d.Logger, d.AuthMiddleware).RegisterRoutes(router)
	NewSensorController(d.Boards, d.Sensors, d.Logger, d.AuthMiddleware).RegisterRoutes(router)
	NewReadingController(d.Readings, d.Boards, d.Sensors, d.Writer, d.Logger, d.AuthMiddleware).RegisterRoutes(router)
	NewNotificationController(d.AlertRules, d.Boards, d.Sensors, d.Logger, d.AuthMiddleware).RegisterRoutes(router)
	NewDashboardController(d.Dashboards, d.Boards, d.Sensors, d.AuthMiddleware).RegisterRoutes(router)
	NewHealthController(d.Health).RegisterRoutes(router)
	NewInternalController(d.Sensors, d.Writer, d.Config.InternalAPISecret).RegisterRoutes(router)

	return router
}
