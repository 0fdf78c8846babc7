package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment states of a tab
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Item bucket names
const (
	StatusPreparing = "preparing"
	StatusServed    = "served"
)

// Order is one diner's open tab at a table. A diner holds at most one
// unpaid tab per table; every submission lands on it.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	TableID       uuid.UUID       `json:"table_id"`
	TableNumber   int             `json:"table_number"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"payment_status"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []*OrderItem    `json:"items,omitempty"`
}

// OrderItem is one line on a tab. Name, price and image are snapshots
// taken at ordering time so later menu edits never change the bill.
// quantity_preparing + quantity_served = quantity always holds.
type OrderItem struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	MenuItemID        uuid.UUID       `json:"menu_item_id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	ImageURL          *string         `json:"image_url,omitempty"`
	Options           string          `json:"options"`
	Quantity          int             `json:"quantity"`
	QuantityPreparing int             `json:"quantity_preparing"`
	QuantityServed    int             `json:"quantity_served"`
	SequenceMark      int             `json:"sequence_mark"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Status derives the line status from its buckets
func (i *OrderItem) Status() string {
	if i.QuantityPreparing == 0 {
		return StatusServed
	}
	return StatusPreparing
}

// MergeKey identifies lines that collapse into one another
func (i *OrderItem) MergeKey() MergeKey {
	return MergeKey{MenuItemID: i.MenuItemID, Options: i.Options}
}

// MergeKey is the identity of a mergeable line
type MergeKey struct {
	MenuItemID uuid.UUID
	Options    string
}

// Recompute refreshes the tab total from its lines
func (o *Order) Recompute() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	o.Amount = total
}

// MaxSequenceMark returns the highest submission round on the tab
func (o *Order) MaxSequenceMark() int {
	max := 0
	for _, item := range o.Items {
		if item.SequenceMark > max {
			max = item.SequenceMark
		}
	}
	return max
}

// Scope restricts a settlement or view to one diner's tab; nil means
// every unpaid tab at the table. Always chosen explicitly by the caller.
type Scope struct {
	ByUser *uuid.UUID
}
