package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSettlementFailed    = errors.New("settlement failed, no charge was recorded")
	ErrTabsChanged         = errors.New("tabs changed during settlement, please retry")
	ErrInvalidSignature    = errors.New("callback signature verification failed")
	ErrNothingToSettle     = errors.New("no unpaid tabs in scope")
	ErrPaymentNotClaimed   = errors.New("payment claim is not held by this staff member")
	ErrDuplicateSettlement = errors.New("gateway transaction already settled")
	ErrGatewayRejected     = errors.New("payment gateway rejected the order")
)

// IncompleteItemsError refuses settlement while items are still being
// prepared, naming each offender so staff can chase them down.
type IncompleteItemsError struct {
	Items []string
}

func (e *IncompleteItemsError) Error() string {
	return fmt.Sprintf("items not yet served: %s", strings.Join(e.Items, ", "))
}
