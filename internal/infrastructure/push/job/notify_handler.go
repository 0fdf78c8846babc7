package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"dinein-backend/internal/infrastructure/push"
	"dinein-backend/pkg/logger"
)

// Provider sends one notification to one device owner. The log
// provider stands in until FCM credentials are provisioned.
type Provider interface {
	Send(ctx context.Context, userID string, title, body string, data map[string]string) error
}

// NotifyHandler fans a queued notification out to its recipients
type NotifyHandler struct {
	provider Provider
}

func NewNotifyHandler(provider Provider) *NotifyHandler {
	return &NotifyHandler{provider: provider}
}

func (h *NotifyHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload push.NotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal notify payload: %w", err)
	}

	var failed int
	for _, userID := range payload.UserIDs {
		if err := h.provider.Send(ctx, userID.String(), payload.Title, payload.Body, payload.Data); err != nil {
			logger.Warn("notification delivery failed", map[string]interface{}{
				"user_id": userID.String(),
				"error":   err.Error(),
			})
			failed++
		}
	}
	if failed == len(payload.UserIDs) && failed > 0 {
		return fmt.Errorf("all %d deliveries failed", failed)
	}
	return nil
}

// LogProvider writes notifications to the log instead of a device
type LogProvider struct{}

func (LogProvider) Send(_ context.Context, userID string, title, body string, data map[string]string) error {
	logger.Info("push notification", map[string]interface{}{
		"user_id": userID,
		"title":   title,
		"body":    body,
		"data":    data,
	})
	return nil
}
