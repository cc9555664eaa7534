package api_models

import auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"

// PredefinedRole represents a role seeded at startup
type PredefinedRole struct {
	Name        string
	Description string
}

// GetPredefinedRoles returns the roles every installation starts with
func GetPredefinedRoles() []PredefinedRole {
	return []PredefinedRole{
		{Name: auth_models.RoleAdmin, Description: "Administrator with access to every board, sensor and reading"},
		{Name: auth_models.RoleUser, Description: "Owner of their own boards, sensors, dashboards and notifications"},
	}
}
