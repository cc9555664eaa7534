package interfaces

import (
	"context"

	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
)

// RoleRepository stores the named roles users can hold. Lookups return ErrNotFound
// for unknown ids and names.
type RoleRepository interface {
	Create(ctx context.Context, role *auth_models.Role) (*auth_models.Role, error)

	FindByID(ctx context.Context, id string) (*auth_models.Role, error)
	FindByName(ctx context.Context, name string) (*auth_models.Role, error)
	FindAll(ctx context.Context) ([]*auth_models.Role, error)

	Update(ctx context.Context, role *auth_models.Role) error
	Delete(ctx context.Context, id string) error
}
