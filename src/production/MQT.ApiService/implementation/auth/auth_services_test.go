package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	config "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Config"
	database "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Database"
	logger "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Logger"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	repo "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Implementation"
)

func newRepos(t *testing.T) (*repo.UserRepository, *repo.RoleRepository) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"}, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewManager(db, config.DriverSQLite).CreateTables(context.Background()))
	return repo.NewUserRepository(db), repo.NewRoleRepository(db)
}

func TestPasswordPolicy(t *testing.T) {
	p := PasswordPolicy{MinLength: 8, RequireSpecialChar: true}
	assert.ErrorIs(t, p.Check("short!"), ErrWeakPassword)
	assert.ErrorIs(t, p.Check("longenough1"), ErrWeakPassword)
	assert.NoError(t, p.Check("longenough!"))
}

func TestRegisterAndLogin(t *testing.T) {
	users, _ := newRepos(t)
	ctx := context.Background()
	svc := NewAuthService(users, jwt.NewService(api_models.JWTConfig{
		SecretKey: "k", AccessTokenDuration: time.Minute, RefreshTokenDuration: time.Hour, Issuer: "i",
	}), rbac.NewService(), PasswordPolicy{MinLength: 8})

	_, err := svc.Register(ctx, api_models.RegisterRequest{Username: "a", Email: "nope", Password: "longenough"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Register(ctx, api_models.RegisterRequest{Username: "a", Email: "a@x.io", Password: "longenough", Role: "wizard"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	user, err := svc.Register(ctx, api_models.RegisterRequest{Username: "a", Email: "a@x.io", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, auth_models.RoleUser, user.Role)
	assert.NotEqual(t, "longenough", user.Password)

	_, err = svc.Register(ctx, api_models.RegisterRequest{Username: "a", Email: "b@x.io", Password: "longenough"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	resp, pair, err := svc.Login(ctx, api_models.LoginRequest{Username: "a", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, user.UserID, resp.UserID)
	assert.NotEmpty(t, pair.RefreshToken)

	_, _, err = svc.Login(ctx, api_models.LoginRequest{Username: "a", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, user.UserID, "longenough", "evenlonger"))
	_, _, err = svc.Login(ctx, api_models.LoginRequest{Username: "a", Password: "evenlonger"})
	assert.NoError(t, err)
}

func TestRoleInitializerIsIdempotent(t *testing.T) {
	users, roles := newRepos(t)
	ctx := context.Background()
	rbacService := rbac.NewService()
	seeder := NewRoleInitializerService(roles, users, rbacService, logger.NewNopLogger(),
		AdminConfig{Username: "admin", Email: "admin@example.com", Password: "adminpassword"})

	for i := 0; i < 2; i++ {
		require.NoError(t, seeder.InitializeRoles(ctx))
		require.NoError(t, seeder.InitializeAdminUser(ctx))
	}

	all, err := roles.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admins, err := users.GetByRole(ctx, auth_models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 1)
}
