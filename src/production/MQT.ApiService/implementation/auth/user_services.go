package auth

import (
	"context"
	"fmt"

	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

// UserService provides admin user management
type UserService struct {
	userRepo    interfaces.UserRepository
	rbacService *rbac.Service
}

func NewUserService(userRepo interfaces.UserRepository, rbacService *rbac.Service) *UserService {
	return &UserService{userRepo: userRepo, rbacService: rbacService}
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*auth_models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers pages through users, optionally filtered by role
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int, role string) (*interfaces.PaginationResult, error) {
	return s.userRepo.List(ctx, page, pageSize, role)
}

// UpdateUserRole updates a user's role
func (s *UserService) UpdateUserRole(ctx context.Context, userID string, newRole string) (*auth_models.User, error) {
	if !s.rbacService.IsValidRole(newRole) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, newRole)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Role = newRole

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive enables or disables a login without deleting owned data
func (s *UserService) SetActive(ctx context.Context, userID string, active bool) (*auth_models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Active = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and, through cascades, their boards and rules
func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	return s.userRepo.Delete(ctx, userID, true)
}
