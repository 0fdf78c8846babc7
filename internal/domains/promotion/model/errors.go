package model

import "errors"

var (
	ErrPromotionNotFound  = errors.New("promotion not found")
	ErrPromotionInactive  = errors.New("promotion is not active")
	ErrPromotionNotInUse  = errors.New("promotion has not started yet")
	ErrPromotionExpired   = errors.New("promotion has expired")
	ErrPromotionExhausted = errors.New("promotion usage limit reached")
	ErrUserLimitExceeded  = errors.New("user has exceeded uses for this promotion")
	ErrNotRedeemed        = errors.New("promotion must be redeemed with points first")
	ErrOrderBelowMinimum  = errors.New("order total is below the promotion minimum")
	ErrNotPointGated      = errors.New("promotion cannot be redeemed with points")
	ErrCodeExists         = errors.New("promotion code already exists")
	ErrPromotionUsed      = errors.New("promotion has been used and cannot be deleted")
	ErrVersionConflict    = errors.New("promotion was modified concurrently")
	ErrInvalidDiscount    = errors.New("invalid discount configuration")
)

// Evaluation reasons surfaced to clients
const (
	ReasonInvalidCode    = "invalid_code"
	ReasonNotStarted     = "not_started"
	ReasonExpired        = "expired"
	ReasonUsageCap       = "usage_cap_reached"
	ReasonUserCap        = "per_user_cap_reached"
	ReasonNotRedeemed    = "not_redeemed"
	ReasonBelowMinimum   = "below_minimum_order"
)
