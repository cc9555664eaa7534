package implementation

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
)

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func scanRole(s rowScanner) (*auth_models.Role, error) {
	var role auth_models.Role
	var description sql.NullString
	if err := s.Scan(&role.RoleID, &role.Name, &description, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return nil, err
	}
	role.Description = description.String
	return &role, nil
}

// Create adds a new role; names are unique
func (r *RoleRepository) Create(ctx context.Context, role *auth_models.Role) (*auth_models.Role, error) {
	if role.RoleID == "" {
		role.RoleID = uuid.New().String()
	}
	role.CreatedAt = now()
	role.UpdatedAt = role.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO roles (role_id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		role.RoleID, role.Name, role.Description, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return role, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*auth_models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT role_id, name, description, created_at, updated_at FROM roles WHERE role_id = $1`, id))
	if err != nil {
		return nil, translateError(err)
	}
	return role, nil
}

func (r *RoleRepository) FindByName(ctx context.Context, name string) (*auth_models.Role, error) {
	role, err := scanRole(r.db.QueryRowContext(ctx,
		`SELECT role_id, name, description, created_at, updated_at FROM roles WHERE name = $1`, name))
	if err != nil {
		return nil, translateError(err)
	}
	return role, nil
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]*auth_models.Role, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_id, name, description, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]*auth_models.Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) Update(ctx context.Context, role *auth_models.Role) error {
	role.UpdatedAt = now()
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE roles SET name = $1, description = $2, updated_at = $3 WHERE role_id = $4`,
		role.Name, role.Description, role.UpdatedAt, role.RoleID))
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM roles WHERE role_id = $1`, id))
}
