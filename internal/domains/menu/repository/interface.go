package repository

import (
	"context"

	"github.com/google/uuid"

	"dinein-backend/internal/domains/menu/model"
)

// MenuRepository is the persistence contract for menu items
type MenuRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.MenuItem, error)
	List(ctx context.Context, category string, onlyAvailable bool) ([]*model.MenuItem, error)
	Create(ctx context.Context, item *model.MenuItem) error
	Update(ctx context.Context, item *model.MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}
