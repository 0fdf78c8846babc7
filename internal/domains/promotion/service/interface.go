package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"dinein-backend/internal/domains/promotion/model"
)

// PromotionService is the promotion engine. Evaluate is advisory;
// Authorize and CommitUsage are what settlement relies on.
type PromotionService interface {
	// Evaluate answers "would this code apply" without reserving anything
	Evaluate(ctx context.Context, userID uuid.UUID, req *model.EvaluateRequest) (*model.Evaluation, error)

	// Authorize re-checks a code for settlement and returns the voucher
	// with the discounted total. Business failures come back as errors.
	Authorize(ctx context.Context, code string, total decimal.Decimal, userID uuid.UUID) (*model.Promotion, decimal.Decimal, error)

	// Redeem buys one usage charge with loyalty points
	Redeem(ctx context.Context, userID uuid.UUID, req *model.RedeemRequest) (*model.Redemption, error)

	// CommitUsage records a voucher application inside the settlement
	// transaction: bumps used_count under the version gate, appends the
	// usage log, and spends a redemption charge for point-gated vouchers.
	CommitUsage(ctx context.Context, tx pgx.Tx, promo *model.Promotion, userID, paymentID uuid.UUID, usageCount int) error

	// Admin CRUD
	CreatePromotion(ctx context.Context, req *model.CreatePromotionRequest) (*model.Promotion, error)
	UpdatePromotion(ctx context.Context, id uuid.UUID, req *model.UpdatePromotionRequest) (*model.Promotion, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Promotion, error)
	DeletePromotion(ctx context.Context, id uuid.UUID) error
	ListPromotions(ctx context.Context, activeOnly bool) ([]*model.Promotion, error)
	UserUsageReport(ctx context.Context, userID uuid.UUID) ([]*model.Usage, error)
}

// PointsLedger is the slice of the user domain the engine needs.
// Satisfied by the user repository.
type PointsLedger interface {
	DebitPoints(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int) error
}
