package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	jwt "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/jwt"
	rbac "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.ApiService/implementation/rbac"
	api_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/api"
	auth_models "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Models/auth"
	interfaces "gitlab.com/maplesense1/mpt.device_manager/src/production/MQT.Repository/Interfaces"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidRole        = errors.New("invalid role")
)

// PasswordPolicy is enforced on registration and password changes
type PasswordPolicy struct {
	MinLength          int
	RequireSpecialChar bool
}

func (p PasswordPolicy) Check(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: at least %d characters required", ErrWeakPassword, p.MinLength)
	}
	if p.RequireSpecialChar && strings.IndexFunc(password, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) < 0 {
		return fmt.Errorf("%w: a special character is required", ErrWeakPassword)
	}
	return nil
}

// AuthService aggregates auth operations
type AuthService struct {
	userRepo    interfaces.UserRepository
	jwtService  *jwt.Service
	rbacService *rbac.Service
	policy      PasswordPolicy
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	jwtService *jwt.Service,
	rbacService *rbac.Service,
	policy PasswordPolicy,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		jwtService:  jwtService,
		rbacService: rbacService,
		policy:      policy,
	}
}

// Register creates a user. An empty role defaults to user.
func (s *AuthService) Register(ctx context.Context, req api_models.RegisterRequest) (*auth_models.User, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrInvalidEmail
	}
	if err := s.policy.Check(req.Password); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = auth_models.RoleUser
	}
	if !s.rbacService.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, req.Role)
	}

	if existing, err := s.userRepo.GetByUsername(ctx, req.Username); err == nil && existing != nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, auth_models.NewUser(req.Username, req.Email, hashed, req.Role))
	if errors.Is(err, interfaces.ErrConflict) {
		return nil, ErrUsernameTaken
	}
	return user, err
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req api_models.LoginRequest) (*api_models.AuthResponse, *api_models.TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil || !user.Active {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokenPair, err := s.jwtService.GenerateTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return &api_models.AuthResponse{
		AccessToken: tokenPair.AccessToken,
		TokenID:     tokenPair.TokenID,
		ExpiresAt:   tokenPair.ExpiresAt,
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
	}, tokenPair, nil
}

// RefreshTokens exchanges a refresh token for a new pair
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*api_models.RefreshTokenResponse, *api_models.TokenPair, error) {
	tokenPair, err := s.jwtService.RefreshTokens(ctx, refreshToken, s.userRepo)
	if err != nil {
		return nil, nil, err
	}

	return &api_models.RefreshTokenResponse{
		AccessToken: tokenPair.AccessToken,
		TokenID:     tokenPair.TokenID,
		ExpiresAt:   tokenPair.ExpiresAt,
	}, tokenPair, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*auth_models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ChangePassword verifies the current password before storing the new hash
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	if err := s.policy.Check(next); err != nil {
		return err
	}
	hashed, err := HashPassword(next)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
