package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	ordermodel "dinein-backend/internal/domains/order/model"
	"dinein-backend/internal/domains/payment/gateway/zalopay"
	"dinein-backend/internal/domains/payment/model"
	promomodel "dinein-backend/internal/domains/promotion/model"
	tablemodel "dinein-backend/internal/domains/table/model"
)

// PaymentService is the settlement coordinator
type PaymentService interface {
	SettleCash(ctx context.Context, staffID uuid.UUID, req *model.SettleRequest) (*model.Payment, error)
	InitiateGatewaySettlement(ctx context.Context, userID uuid.UUID, req *model.SettleRequest) (*model.InitiateResponse, error)
	// HandleGatewayCallback always answers the gateway, never errors out
	HandleGatewayCallback(ctx context.Context, payload *zalopay.CallbackPayload) *zalopay.CallbackResponse
	History(ctx context.Context, callerID uuid.UUID, role string, byUser *uuid.UUID) ([]*model.Payment, error)
}

// TabStore is the slice of the order domain settlement needs.
// Satisfied by the order repository.
type TabStore interface {
	FindUnpaidScoped(ctx context.Context, tableID uuid.UUID, scope ordermodel.Scope) ([]*ordermodel.Order, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*ordermodel.Order, error)
	MarkPaid(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, expectedVersion int) (bool, error)
}

// TableStore is the slice of the table domain settlement needs.
// Satisfied by the table repository.
type TableStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*tablemodel.Table, error)
	ReleasePaymentClaimTx(ctx context.Context, tx pgx.Tx, tableID uuid.UUID) error
}

// PromotionEngine is the slice of the promotion domain settlement
// needs. Satisfied by the promotion service.
type PromotionEngine interface {
	Authorize(ctx context.Context, code string, total decimal.Decimal, userID uuid.UUID) (*promomodel.Promotion, decimal.Decimal, error)
	CommitUsage(ctx context.Context, tx pgx.Tx, promo *promomodel.Promotion, userID, paymentID uuid.UUID, usageCount int) error
}

// Gateway abstracts the payment provider. Satisfied by zalopay.Client.
type Gateway interface {
	NewAppTransID() string
	Key2() string
	CreateOrder(ctx context.Context, appTransID, appUser string, amount int64, item, embedData, description string) (*zalopay.CreateOrderResponse, error)
}
