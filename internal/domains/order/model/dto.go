package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitItem is one cart entry in a submission
type SubmitItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	Options    string    `json:"options"`
}

func (i SubmitItem) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.MenuItemID, validation.By(requiredUUID)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.Options, validation.Length(0, 500)),
	)
}

// SubmitItemsRequest places a batch of items on the caller's tab.
// Staff may submit on behalf of a seated diner via UserID.
type SubmitItemsRequest struct {
	TableID uuid.UUID    `json:"table_id"`
	UserID  *uuid.UUID   `json:"user_id,omitempty"`
	Items   []SubmitItem `json:"items"`
}

func (r SubmitItemsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TableID, validation.By(requiredUUID)),
		validation.Field(&r.Items, validation.Required, validation.Length(1, 100)),
	)
}

// TransitionLineRequest moves units between preparing and served
type TransitionLineRequest struct {
	Target   string `json:"target"`
	Quantity int    `json:"quantity"`
}

func (r TransitionLineRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Target, validation.Required, validation.In(StatusPreparing, StatusServed)),
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

// RemoveUnitsRequest takes units off a line
type RemoveUnitsRequest struct {
	Quantity int `json:"quantity"`
}

func (r RemoveUnitsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Required, validation.Min(1)),
	)
}

// Round is one submission batch on a tab
type Round struct {
	SequenceMark int          `json:"sequence_mark"`
	Items        []*OrderItem `json:"items"`
}

// TabView is one diner's tab grouped by submission round
type TabView struct {
	OrderID     uuid.UUID       `json:"order_id"`
	TableID     uuid.UUID       `json:"table_id"`
	TableNumber int             `json:"table_number"`
	Amount      decimal.Decimal `json:"amount"`
	Rounds      []Round         `json:"rounds"`
}

// UserQuantity is one diner's share of a merged line
type UserQuantity struct {
	UserID   uuid.UUID `json:"user_id"`
	Quantity int       `json:"quantity"`
}

// MergedLine is a table-wide line merged across diners
type MergedLine struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Options    string          `json:"options"`
	Quantity   int             `json:"quantity"`
	PerUser    []UserQuantity  `json:"per_user"`
}

// TableView is the whole table's unpaid consumption
type TableView struct {
	TableID     uuid.UUID       `json:"table_id"`
	TableNumber int             `json:"table_number"`
	Total       decimal.Decimal `json:"total"`
	Lines       []*MergedLine   `json:"lines"`
}

// KitchenLine is one feed entry for staff
type KitchenLine struct {
	LineID       uuid.UUID `json:"line_id"`
	OrderID      uuid.UUID `json:"order_id"`
	TableNumber  int       `json:"table_number"`
	Name         string    `json:"name"`
	Options      string    `json:"options"`
	Quantity     int       `json:"quantity"`
	SequenceMark int       `json:"sequence_mark"`
	CreatedAt    time.Time `json:"created_at"`
}

func requiredUUID(value interface{}) error {
	id, ok := value.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return validation.NewError("validation_required", "must be a valid id")
	}
	return nil
}
