package model

import (
	"time"

	"github.com/google/uuid"
)

// Lock states for both the table and its payment claim
const (
	LockStateOpen   = "open"
	LockStateLocked = "locked"
)

// Admission code types. A hard code is printed on the table and only
// admits the first party. A soft code is minted per session and shared
// by the seated party with latecomers.
const (
	CodeTypeHard = "hard"
	CodeTypeSoft = "soft"
)

// Table is one physical dining table
type Table struct {
	ID               uuid.UUID   `json:"id"`
	TableNumber      int         `json:"table_number"`
	LockState        string      `json:"lock_state"`
	PaymentLockState string      `json:"payment_lock_state"`
	Occupants        []uuid.UUID `json:"occupants"`
	ClaimingStaff    []uuid.UUID `json:"claiming_staff"`
	Version          int         `json:"version"`
	IsDeleted        bool        `json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsOccupiedBy reports whether the user is currently seated here
func (t *Table) IsOccupiedBy(userID uuid.UUID) bool {
	for _, id := range t.Occupants {
		if id == userID {
			return true
		}
	}
	return false
}

// IsClaimedBy reports whether the staff member holds the payment claim
func (t *Table) IsClaimedBy(staffID uuid.UUID) bool {
	for _, id := range t.ClaimingStaff {
		if id == staffID {
			return true
		}
	}
	return false
}
