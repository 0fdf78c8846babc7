package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dinein-backend/internal/domains/promotion/model"
)

// PromotionRepository is the persistence contract for vouchers,
// redemptions and the append-only usage log.
type PromotionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)
	FindByCode(ctx context.Context, code string) (*model.Promotion, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Promotion, error)

	Create(ctx context.Context, p *model.Promotion) error
	// Update writes under a version precondition
	Update(ctx context.Context, p *model.Promotion) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeactivateExpired flips is_active off for promotions past their
	// end date and returns how many rows changed.
	DeactivateExpired(ctx context.Context) (int64, error)

	// Redemption stock
	GetRedemption(ctx context.Context, userID, promotionID uuid.UUID) (*model.Redemption, error)
	IncrementRedemption(ctx context.Context, tx pgx.Tx, userID, promotionID uuid.UUID) error
	// DecrementRedemption spends charges, deleting the row at zero.
	// Returns false when the stock was insufficient.
	DecrementRedemption(ctx context.Context, tx pgx.Tx, userID, promotionID uuid.UUID, count int) (bool, error)

	// Usage accounting inside a settlement transaction
	IncrementUsedCount(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID, count, expectedVersion int) (bool, error)
	InsertUsage(ctx context.Context, tx pgx.Tx, usage *model.Usage) error
	SumUserUsage(ctx context.Context, userID, promotionID uuid.UUID) (int, error)
	ListUserUsage(ctx context.Context, userID uuid.UUID) ([]*model.Usage, error)
}
