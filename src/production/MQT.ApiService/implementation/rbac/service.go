package rbac

import (
	"sort"
	"sync"

	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
)

// Service tracks the roles a user may be assigned
type Service struct {
	mu    sync.RWMutex
	roles map[string]bool
}

// NewService creates a new RBAC service with the built-in roles
func NewService() *Service {
	return &Service{
		roles: map[string]bool{
			auth_models.RoleAdmin: true,
			auth_models.RoleUser:  true,
		},
	}
}

func (s *Service) IsValidRole(roleName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles[roleName]
}

func (s *Service) IsAdmin(roleName string) bool {
	return roleName == auth_models.RoleAdmin
}

// AddRole registers a role loaded from storage
func (s *Service) AddRole(roleName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[roleName] = true
}

// GetValidRoles returns all valid roles, sorted
func (s *Service) GetValidRoles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roles := make([]string, 0, len(s.roles))
	for role := range s.roles {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
