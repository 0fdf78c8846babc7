package push

import (
	"context"

	"github.com/google/uuid"
)

// Dispatcher delivers push notifications to diners and staff devices.
// Delivery is best effort and must never block or fail a business operation.
type Dispatcher interface {
	Notify(ctx context.Context, userIDs []uuid.UUID, title, body string, data map[string]string) error
}
