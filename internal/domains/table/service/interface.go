package service

import (
	"context"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/table/model"
)

// TableService is the table occupancy manager
type TableService interface {
	// Admission and release
	Admit(ctx context.Context, userID uuid.UUID, req *model.AdmitRequest) (*model.Table, error)
	Release(ctx context.Context, userID uuid.UUID) error
	IssueSoftCode(ctx context.Context, userID, tableID uuid.UUID, role string) (*model.SoftCodeResponse, error)

	// Locking
	SetLockState(ctx context.Context, tableID uuid.UUID, state string) (*model.Table, error)
	SetPaymentLockState(ctx context.Context, tableID, staffID uuid.UUID, state string) (*model.Table, error)

	// Views
	CurrentTable(ctx context.Context, userID uuid.UUID) (*model.Table, error)
	ListOccupants(ctx context.Context, tableID uuid.UUID) ([]uuid.UUID, error)
	ListTables(ctx context.Context) ([]*model.Table, error)

	// Admin CRUD
	CreateTable(ctx context.Context, req *model.CreateTableRequest) (*model.Table, error)
	UpdateTable(ctx context.Context, id uuid.UUID, req *model.UpdateTableRequest) (*model.Table, error)
	DeleteTable(ctx context.Context, id uuid.UUID) error
}

// TabChecker reports unpaid tab state. Implemented by the order domain.
type TabChecker interface {
	HasUnpaidTab(ctx context.Context, userID, tableID uuid.UUID) (bool, error)
	CountUnpaidTabs(ctx context.Context, tableID uuid.UUID) (int, error)
}
