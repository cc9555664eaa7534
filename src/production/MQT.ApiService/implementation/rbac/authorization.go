package rbac

import (
	"errors"

	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
)

var ErrForbidden = errors.New("unauthorized: insufficient permissions")

// Authorizer answers ownership questions from validated access claims
type Authorizer struct {
	rbacService *Service
}

func NewAuthorizer(rbacService *Service) *Authorizer {
	return &Authorizer{rbacService: rbacService}
}

// RequireRole fails unless the caller holds role
func (a *Authorizer) RequireRole(claims *api_models.AccessClaims, role string) error {
	if claims == nil || claims.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin checks if the caller is an admin
func (a *Authorizer) RequireAdmin(claims *api_models.AccessClaims) error {
	return a.RequireRole(claims, auth_models.RoleAdmin)
}

// RequireOwnerOrAdmin lets admins through and otherwise requires the caller to own the resource
func (a *Authorizer) RequireOwnerOrAdmin(claims *api_models.AccessClaims, resourceUserID string) error {
	if claims == nil {
		return ErrForbidden
	}
	if a.rbacService.IsAdmin(claims.Role) || claims.UserID == resourceUserID {
		return nil
	}
	return ErrForbidden
}
