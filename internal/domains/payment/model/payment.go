package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods
const (
	MethodCash    = "cash"
	MethodZaloPay = "zalopay"
)

// Payment is one immutable settlement record. OrderIDs lists every
// tab the payment covered; a whole-table settlement produces exactly
// one row spanning all of them.
type Payment struct {
	ID                   uuid.UUID        `json:"id"`
	OrderIDs             []uuid.UUID      `json:"order_ids"`
	UserID               uuid.UUID        `json:"user_id"`
	Amount               decimal.Decimal  `json:"amount"`
	VoucherCode          *string          `json:"voucher_code,omitempty"`
	AmountDiscount       *decimal.Decimal `json:"amount_discount,omitempty"`
	Method               string           `json:"method"`
	AppTransactionID     string           `json:"app_transaction_id"`
	GatewayTransactionID *string          `json:"gateway_transaction_id,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}
