package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// SettleRequest settles unpaid tabs at a table. UserID narrows the
// scope to one diner's tab; nil settles the whole table. The scope is
// always this explicit field, never inferred.
type SettleRequest struct {
	TableID   uuid.UUID  `json:"table_id"`
	UserID    *uuid.UUID `json:"user_id"`
	PromoCode string     `json:"promo_code"`
}

func (r SettleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TableID, validation.By(requiredUUID)),
		validation.Field(&r.PromoCode, validation.Length(0, 50)),
	)
}

// InitiateResponse is the redirect payload for the client app
type InitiateResponse struct {
	OrderURL         string `json:"order_url"`
	ZpTransToken     string `json:"zp_trans_token"`
	AppTransactionID string `json:"app_transaction_id"`
}

func requiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_required", "must be a valid id")
	}
	return nil
}
