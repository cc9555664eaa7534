package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/controllers"
	authService "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/auth"
	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	authMiddleware "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/middleware"
	container "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Container"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
)

func main() {
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info().Msg("Starting API Service")

	config := ctr.GetConfig()
	if config.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := ctr.InitializeDatabase(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize database")
	}

	repos, err := ctr.GetRepositories()
	if err != nil {
		logger.FatalWithError(err, "Failed to build repositories")
	}
	writer, err := ctr.GetIngestionWriter()
	if err != nil {
		logger.FatalWithError(err, "Failed to build ingestion pipeline")
	}
	healthChecker, err := ctr.GetHealthChecker()
	if err != nil {
		logger.FatalWithError(err, "Failed to build health checker")
	}

	jwtService := jwt.NewService(api_models.JWTConfig{
		SecretKey:            config.Auth.JWTSecretKey,
		AccessTokenDuration:  config.Auth.AccessTokenDuration,
		RefreshTokenDuration: config.Auth.RefreshTokenDuration,
		Issuer:               config.Auth.JWTIssuer,
	})
	rbacService := rbac.NewService()
	middleware := authMiddleware.NewAuthMiddleware(jwtService, rbacService, authMiddleware.DefaultConfig())

	roleInitializer := authService.NewRoleInitializerService(
		repos.Roles,
		repos.Users,
		rbacService,
		logger,
		authService.AdminConfig{
			Username: config.Auth.Admin.Username,
			Email:    config.Auth.Admin.Email,
			Password: config.Auth.Admin.Password,
		},
	)
	if err := roleInitializer.InitializeRoles(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize roles")
	}
	if err := roleInitializer.InitializeAdminUser(ctx); err != nil {
		logger.FatalWithError(err, "Failed to initialize admin user")
	}

	router := controllers.NewRouter(controllers.Dependencies{
		Config: config,
		Logger: logger,
		AuthService: authService.NewAuthService(repos.Users, jwtService, rbacService, authService.PasswordPolicy{
			MinLength:          config.Auth.PasswordMinLength,
			RequireSpecialChar: config.Auth.PasswordRequireSpecialChar,
		}),
		UserService:    authService.NewUserService(repos.Users, rbacService),
		AuthMiddleware: middleware,
		Boards:         repos.Boards,
		Sensors:        repos.Sensors,
		Readings:       repos.Readings,
		AlertRules:     repos.AlertRules,
		Dashboards:     repos.Dashboards,
		Writer:         writer,
		Health:         healthChecker,
	})

	port := config.Server.Port
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	go func() {
		logger.Info().Str("port", port).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info().Msg("API service running... press Ctrl+C to stop")

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
