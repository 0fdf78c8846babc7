package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"dinein-backend/internal/domains/payment/model"
)

// PaymentRepository is the persistence contract for settlement records
type PaymentRepository interface {
	// Insert writes the payment inside the settlement transaction.
	// A duplicate gateway transaction id surfaces ErrDuplicateSettlement.
	Insert(ctx context.Context, tx pgx.Tx, p *model.Payment) error

	ExistsGatewayTransaction(ctx context.Context, gatewayTransactionID string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Payment, error)
	ListAll(ctx context.Context) ([]*model.Payment, error)
}
