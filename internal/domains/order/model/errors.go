package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound            = errors.New("no open tab found")
	ErrLineNotFound             = errors.New("order line not found")
	ErrNotSeatedAtTable         = errors.New("user is not seated at this table")
	ErrQuantityExceedsAvailable = errors.New("quantity exceeds units available")
	ErrItemAlreadyServed        = errors.New("served items cannot be removed")
	ErrDeletionWindowExpired    = errors.New("deletion window has expired")
	ErrContention               = errors.New("tab was modified concurrently, please retry")
	ErrUnserveStaffOnly         = errors.New("moving items back to preparing is staff only")
)

// UnknownMenuItemsError rejects a whole submission, naming every
// offending menu id so the client can fix its cart in one pass.
type UnknownMenuItemsError struct {
	IDs []uuid.UUID
}

func (e *UnknownMenuItemsError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("unknown menu items: %s", strings.Join(ids, ", "))
}
