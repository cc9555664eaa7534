package interfaces

import (
	"context"

	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
)

// PaginationResult represents a paginated result
type PaginationResult struct {
	Items    interface{} `json:"items"`
	NextPage *int        `json:"next_page,omitempty"`
	Total    int         `json:"total,omitempty"`
}

type UserRepository interface {
	Create(ctx context.Context, user *auth_models.User) (*auth_models.User, error)

	GetByID(ctx context.Context, userID string) (*auth_models.User, error)
	GetByUsername(ctx context.Context, username string) (*auth_models.User, error)
	GetAll(ctx context.Context) ([]*auth_models.User, error)
	List(ctx context.Context, page, pageSize int, role string) (*PaginationResult, error)
	GetByRole(ctx context.Context, role string) ([]*auth_models.User, error)

	Update(ctx context.Context, user *auth_models.User) error

	// Delete removes the user, or only deactivates it when hardDelete is false
	Delete(ctx context.Context, userID string, hardDelete bool) error
}
