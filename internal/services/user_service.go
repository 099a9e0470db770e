package services

import (
	"context"
	"fmt"

	"dairy-backend/internal/auth"
	"dairy-backend/internal/models"
)

type userStore interface {
	Create(ctx context.Context, req *models.CreateUserRequest, passwordHash string) (*models.User, error)
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	SetTOTPSecret(ctx context.Context, userID int, secret string) error
	EnableTOTP(ctx context.Context, userID int) error
}

// UserService manages staff accounts and login.
type UserService struct {
	users userStore
	jwt   *auth.JWTManager
}

func NewUserService(users userStore, jwt *auth.JWTManager) *UserService {
	return &UserService{users: users, jwt: jwt}
}

func (s *UserService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return nil, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}
	if existing, _ := s.users.GetByEmail(ctx, req.Email); existing != nil {
		return nil, fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err := s.users.Create(ctx, req, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login authenticates by email and password. Accounts with 2FA enabled get
// a short-lived temp token back instead of a session; the caller must then
// present a TOTP code to finish the login.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, bool, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, false, fmt.Errorf("invalid credentials")
	}
	if !user.IsActive {
		return nil, false, fmt.Errorf("account is disabled")
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, false, fmt.Errorf("invalid credentials")
	}

	if user.TOTPEnabled {
		tempToken, err := s.jwt.GenerateTempToken(user)
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate temp token: %w", err)
		}
		return &models.LoginResponse{Token: tempToken, User: user}, true, nil
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user}, false, nil
}

// CompleteTOTPLogin exchanges a valid temp token plus TOTP code for a full
// session token.
func (s *UserService) CompleteTOTPLogin(ctx context.Context, tempToken, code string, verify func(user *models.User, code string) bool) (*models.LoginResponse, error) {
	claims, err := s.jwt.ValidateTempToken(tempToken)
	if err != nil {
		return nil, fmt.Errorf("invalid temp token: %w", err)
	}
	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if !verify(user, code) {
		return nil, fmt.Errorf("invalid verification code")
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &models.LoginResponse{Token: token, User: user}, nil
}

func (s *UserService) Get(ctx context.Context, id int) (*models.User, error) {
	return s.users.Get(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}
