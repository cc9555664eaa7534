package auth

import (
	"context"
	"errors"
	"fmt"

	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// RoleInitializerService seeds roles and the first admin account
type RoleInitializerService struct {
	roleRepo    interfaces.RoleRepository
	userRepo    interfaces.UserRepository
	rbacService *rbac.Service
	logger      *logger.Logger
	adminConfig AdminConfig
}

// AdminConfig holds admin user configuration
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

func NewRoleInitializerService(
	roleRepo interfaces.RoleRepository,
	userRepo interfaces.UserRepository,
	rbacService *rbac.Service,
	log *logger.Logger,
	adminConfig AdminConfig,
) *RoleInitializerService {
	return &RoleInitializerService{
		roleRepo:    roleRepo,
		userRepo:    userRepo,
		rbacService: rbacService,
		logger:      log.WithComponent("role-initializer"),
		adminConfig: adminConfig,
	}
}

// InitializeRoles creates any missing predefined role and loads every stored role into RBAC
func (s *RoleInitializerService) InitializeRoles(ctx context.Context) error {
	for _, predefined := range api_models.GetPredefinedRoles() {
		_, err := s.roleRepo.FindByName(ctx, predefined.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			return err
		}
		if _, err := s.roleRepo.Create(ctx, auth_models.NewRole(predefined.Name, predefined.Description)); err != nil {
			return fmt.Errorf("create role %s: %w", predefined.Name, err)
		}
		s.logger.Info().Str("role", predefined.Name).Msg("Role created")
	}

	roles, err := s.roleRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, role := range roles {
		s.rbacService.AddRole(role.Name)
	}
	s.logger.Info().Int("count", len(roles)).Msg("Roles loaded")
	return nil
}

// InitializeAdminUser creates the first admin user if no admin users exist
func (s *RoleInitializerService) InitializeAdminUser(ctx context.Context) error {
	admins, err := s.userRepo.GetByRole(ctx, auth_models.RoleAdmin)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		s.logger.Info().Int("count", len(admins)).Msg("Admin users already exist, skipping admin user creation")
		return nil
	}

	hashed, err := HashPassword(s.adminConfig.Password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := auth_models.NewUser(s.adminConfig.Username, s.adminConfig.Email, hashed, auth_models.RoleAdmin)
	if _, err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info().Str("username", s.adminConfig.Username).Str("email", s.adminConfig.Email).Msg("First admin user created")
	s.logger.Warn().Msg("IMPORTANT: Change the admin password after first login for security!")
	return nil
}
