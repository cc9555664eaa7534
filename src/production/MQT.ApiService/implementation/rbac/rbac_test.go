package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
)

func TestRequireOwnerOrAdmin(t *testing.T) {
	a := NewAuthorizer(NewService())

	assert.NoError(t, a.RequireOwnerOrAdmin(&api_models.AccessClaims{UserID: "u1", Role: "user"}, "u1"))
	assert.ErrorIs(t, a.RequireOwnerOrAdmin(&api_models.AccessClaims{UserID: "u2", Role: "user"}, "u1"), ErrForbidden)
	assert.NoError(t, a.RequireOwnerOrAdmin(&api_models.AccessClaims{UserID: "u9", Role: "admin"}, "u1"))
	assert.ErrorIs(t, a.RequireOwnerOrAdmin(nil, "u1"), ErrForbidden)
}

func TestRequireAdmin(t *testing.T) {
	a := NewAuthorizer(NewService())
	assert.NoError(t, a.RequireAdmin(&api_models.AccessClaims{Role: "admin"}))
	assert.ErrorIs(t, a.RequireAdmin(&api_models.AccessClaims{Role: "user"}), ErrForbidden)
}

func TestRolesFromStorageBecomeValid(t *testing.T) {
	s := NewService()
	assert.False(t, s.IsValidRole("operator"))
	s.AddRole("operator")
	assert.True(t, s.IsValidRole("operator"))
	assert.Equal(t, []string{"admin", "operator", "user"}, s.GetValidRoles())
}
