package model

import "errors"

var (
	ErrTableNotFound           = errors.New("table not found")
	ErrTableLocked             = errors.New("table is locked")
	ErrTableOccupied           = errors.New("table is already occupied")
	ErrAlreadySeatedElsewhere  = errors.New("user is already seated at another table")
	ErrNotSeated               = errors.New("user is not seated at any table")
	ErrUnsettledTabExists      = errors.New("unsettled tab exists for this user")
	ErrUnsettledTabsRemain     = errors.New("unsettled tabs remain at this table")
	ErrPaymentAlreadyClaimed   = errors.New("payment is already claimed by another staff member")
	ErrTableNumberExists       = errors.New("table number already exists")
	ErrTableNotLocked          = errors.New("table must be locked first")
	ErrInvalidSoftCode         = errors.New("invalid or expired admission code")
	ErrTableAlreadyInThatState = errors.New("table is already in the requested state")
)
