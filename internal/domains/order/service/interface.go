package service

import (
	"context"

	"github.com/google/uuid"

	menumodel "dinein-backend/internal/domains/menu/model"
	"dinein-backend/internal/domains/order/model"
	tablemodel "dinein-backend/internal/domains/table/model"
)

// OrderService aggregates submissions onto per-diner tabs
type OrderService interface {
	SubmitItems(ctx context.Context, actorID uuid.UUID, actorRole string, req *model.SubmitItemsRequest) (*model.Order, error)
	TransitionLine(ctx context.Context, tableID, lineID uuid.UUID, actorRole string, req *model.TransitionLineRequest) (*model.OrderItem, error)
	RemoveUnits(ctx context.Context, actorID uuid.UUID, actorRole string, tableID, lineID uuid.UUID, req *model.RemoveUnitsRequest) error

	// Views
	GetTab(ctx context.Context, userID, tableID uuid.UUID) (*model.TabView, error)
	GetTableView(ctx context.Context, tableID uuid.UUID) (*model.TableView, error)
	ListKitchen(ctx context.Context, status string) ([]*model.KitchenLine, error)
}

// MenuCatalog is the slice of the menu domain the aggregator needs.
// Satisfied by the menu service.
type MenuCatalog interface {
	GetItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*menumodel.MenuItem, error)
}

// Seating is the slice of the table domain the aggregator needs.
// Satisfied by the table repository.
type Seating interface {
	FindByID(ctx context.Context, id uuid.UUID) (*tablemodel.Table, error)
}
