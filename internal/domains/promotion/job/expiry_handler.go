package job

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"dinein-backend/pkg/logger"
)

// TypeDeactivateExpired is the scheduled sweep that retires vouchers
// past their end date. Authorization checks the window itself, so the
// sweep only keeps listings and admin views current.
const TypeDeactivateExpired = "promotion:deactivate_expired"

type DeactivateExpiredPayload struct{}

func NewDeactivateExpiredTask() (*asynq.Task, error) {
	payload, err := json.Marshal(DeactivateExpiredPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeactivateExpired, payload), nil
}

// ExpiryStore is the slice of the promotion repository the sweep needs.
type ExpiryStore interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

type DeactivateExpiredHandler struct {
	store ExpiryStore
}

func NewDeactivateExpiredHandler(store ExpiryStore) *DeactivateExpiredHandler {
	return &DeactivateExpiredHandler{store: store}
}

func (h *DeactivateExpiredHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	count, err := h.store.DeactivateExpired(ctx)
	if err != nil {
		logger.Error("deactivating expired promotions", err)
		return err
	}
	if count > 0 {
		logger.Info("expired promotions deactivated", map[string]interface{}{
			"count": count,
		})
	}
	return nil
}
