package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dinein-backend/internal/domains/user/model"
	"dinein-backend/internal/domains/user/repository"
	"dinein-backend/pkg/jwt"
	"dinein-backend/pkg/logger"
)

type userService struct {
	repo       repository.UserRepository
	jwtManager *jwt.Manager
}

func NewUserService(repo repository.UserRepository, jwtManager *jwt.Manager) UserService {
	return &userService{
		repo:       repo,
		jwtManager: jwtManager,
	}
}

// Register creates a new diner account
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Reject duplicate email
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, model.ErrEmailAlreadyExists
	}

	// Step 3: Hash password. Cost 12 balances security and latency.
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// Step 4: Persist with diner defaults
	u := &model.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         model.RoleClient,
		Points:       0,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.Info("user registered", map[string]interface{}{
		"user_id": u.ID.String(),
	})

	profile := u.ToProfile()
	return &profile, nil
}

// Login authenticates and issues a token pair
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	// Step 1: Validate input
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Look up account. A missing account reports the same
	// error as a bad password so email existence is not leaked.
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, model.ErrUserInactive
	}

	// Step 3: Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	// Step 4: Issue tokens
	return s.issueTokens(u)
}

// Refresh exchanges a valid refresh token for a new pair
func (s *userService) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	claims, err := s.jwtManager.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, model.ErrUserInactive
	}

	return s.issueTokens(u)
}

// GetProfile returns the public view of an account
func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := u.ToProfile()
	return &profile, nil
}

func (s *userService) issueTokens(u *model.User) (*model.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Email, u.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	return &model.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         u.ToProfile(),
	}, nil
}
