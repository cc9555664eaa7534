package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"
)

type stubUsers struct {
	interfaces.UserRepository
	user *auth_models.User
}

func (s stubUsers) GetByID(_ context.Context, id string) (*auth_models.User, error) {
	if s.user == nil || s.user.UserID != id {
		return nil, interfaces.ErrNotFound
	}
	return s.user, nil
}

func newTestService() *Service {
	return NewService(api_models.JWTConfig{
		SecretKey:            "secret",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
		Issuer:               "devmgr",
	})
}

func testUser() *auth_models.User {
	u := auth_models.NewUser("alice", "alice@example.com", "hash", auth_models.RoleUser)
	u.UserID = "u1"
	return u
}

func TestAccessTokenRoundTrip(t *testing.T) {
	s := newTestService()
	pair, err := s.GenerateTokens(testUser())
	require.NoError(t, err)

	claims, err := s.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, auth_models.RoleUser, claims.Role)
	assert.Equal(t, pair.TokenID, claims.TokenID)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	s := newTestService()
	pair, err := s.GenerateTokens(testUser())
	require.NoError(t, err)

	_, err = s.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredAndForeignTokensAreRejected(t *testing.T) {
	s := newTestService()
	pair, err := s.GenerateTokens(testUser())
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(api_models.JWTConfig{SecretKey: "other", AccessTokenDuration: time.Minute, Issuer: "devmgr"})
	_, err = other.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensPicksUpRoleChangesAndRejectsInactive(t *testing.T) {
	s := newTestService()
	user := testUser()
	pair, err := s.GenerateTokens(user)
	require.NoError(t, err)

	user.Role = auth_models.RoleAdmin
	refreshed, err := s.RefreshTokens(context.Background(), pair.RefreshToken, stubUsers{user: user})
	require.NoError(t, err)
	claims, err := s.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth_models.RoleAdmin, claims.Role)

	user.Active = false
	_, err = s.RefreshTokens(context.Background(), pair.RefreshToken, stubUsers{user: user})
	assert.ErrorIs(t, err, ErrInactiveUser)

	_, err = s.RefreshTokens(context.Background(), pair.RefreshToken, stubUsers{})
	assert.ErrorIs(t, err, ErrInvalidToken)
}
