package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/order/model"
)

// OrderRepository is the persistence contract for tabs and their lines.
// Methods taking a pgx.Tx participate in a caller-managed transaction;
// BumpVersion and MarkPaid are compare-and-swap on the tab version.
type OrderRepository interface {
	FindUnpaidByUserAndTable(ctx context.Context, userID, tableID uuid.UUID) (*model.Order, error)
	FindUnpaidByTable(ctx context.Context, tableID uuid.UUID) ([]*model.Order, error)
	FindUnpaidScoped(ctx context.Context, tableID uuid.UUID, scope model.Scope) ([]*model.Order, error)
	FindUnpaidContainingLine(ctx context.Context, tableID, lineID uuid.UUID) (*model.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Order, error)

	HasUnpaidTab(ctx context.Context, userID, tableID uuid.UUID) (bool, error)
	CountUnpaidTabs(ctx context.Context, tableID uuid.UUID) (int, error)

	// CreateOrder inserts a tab and its lines. A concurrent create of
	// the same (user, table) tab surfaces ErrDuplicateTab.
	CreateOrder(ctx context.Context, order *model.Order) error

	// BumpVersion applies the new amount only when the stored version
	// still matches. Returns false on a lost race.
	BumpVersion(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, expectedVersion int, amount decimal.Decimal) (bool, error)
	InsertItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, items []*model.OrderItem) error
	UpdateItemQuantities(ctx context.Context, tx pgx.Tx, item *model.OrderItem) error
	DeleteItem(ctx context.Context, tx pgx.Tx, itemID uuid.UUID) error
	DeleteOrder(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// MarkPaid settles one tab under a version precondition
	MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, expectedVersion int) (bool, error)

	// Kitchen feeds
	ListKitchenLines(ctx context.Context, status string) ([]*model.KitchenLine, error)
}
