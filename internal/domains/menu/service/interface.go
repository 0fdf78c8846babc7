package service

import (
	"context"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/menu/model"
)

// MenuService exposes the menu catalog to diners and admins
type MenuService interface {
	GetItem(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.MenuItem, error)
	ListItems(ctx context.Context, category string, onlyAvailable bool) ([]*model.MenuItem, error)
	CreateItem(ctx context.Context, req *model.CreateMenuItemRequest) (*model.MenuItem, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req *model.UpdateMenuItemRequest) (*model.MenuItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}
