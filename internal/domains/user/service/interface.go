package service

import (
	"context"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/user/model"
)

// UserService handles accounts and authentication
type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Refresh(ctx context.Context, req *model.RefreshRequest) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
}
