package implementation

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

const userColumns = `user_id, username, email, password, role, active, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(s rowScanner) (*auth_models.User, error) {
	var user auth_models.User
	if err := s.Scan(&user.UserID, &user.Username, &user.Email, &user.Password,
		&user.Role, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts the user, or refreshes it when the id already exists
func (r *UserRepository) Create(ctx context.Context, user *auth_models.User) (*auth_models.User, error) {
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET username = EXCLUDED.username, email = EXCLUDED.email, password = EXCLUDED.password,
		              role = EXCLUDED.role, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query, user.UserID, user.Username, user.Email,
		user.Password, user.Role, user.Active, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*auth_models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*auth_models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]*auth_models.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
}

// GetByRole retrieves users by role
func (r *UserRepository) GetByRole(ctx context.Context, role string) ([]*auth_models.User, error) {
	return r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC`, role)
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int, role string) (*interfaces.PaginationResult, error) {
	page, pageSize, offset := normalizePage(page, pageSize)

	var (
		users []*auth_models.User
		total int
		err   error
	)
	if role != "" {
		if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&total); err != nil {
			return nil, err
		}
		users, err = r.query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
			role, pageSize, offset)
	} else {
		if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
			return nil, err
		}
		users, err = r.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			pageSize, offset)
	}
	if err != nil {
		return nil, err
	}

	return &interfaces.PaginationResult{
		Items:    users,
		NextPage: nextPage(page, pageSize, len(users), total),
		Total:    total,
	}, nil
}

func (r *UserRepository) query(ctx context.Context, query string, args ...any) ([]*auth_models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*auth_models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, user *auth_models.User) error {
	user.UpdatedAt = now()

	query := `
		UPDATE users
		SET username = $1, email = $2, password = $3, role = $4, active = $5, updated_at = $6
		WHERE user_id = $7
	`
	return expectOne(r.db.ExecContext(ctx, query, user.Username, user.Email, user.Password,
		user.Role, user.Active, user.UpdatedAt, user.UserID))
}

func (r *UserRepository) Delete(ctx context.Context, userID string, hardDelete bool) error {
	if hardDelete {
		return expectOne(r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID))
	}
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE users SET active = $1, updated_at = $2 WHERE user_id = $3`, false, now(), userID))
}
