package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shiftlink/backend/internal/queue"
	"github.com/shiftlink/backend/internal/services/notification"
)

// NotificationJob delivers queued notifications so HTTP handlers never block
// on push delivery
type NotificationJob struct {
	notifications *notification.Service
}

// NewNotificationJob creates the deferred notification job
func NewNotificationJob(notifications *notification.Service) *NotificationJob {
	return &NotificationJob{notifications: notifications}
}

// Handle creates and pushes one queued notification
func (j *NotificationJob) Handle(ctx context.Context, job queue.Job) error {
	var input notification.CreateInput
	if err := json.Unmarshal(job.Payload, &input); err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}

	if _, err := j.notifications.Create(ctx, input); err != nil {
		return fmt.Errorf("failed to deliver notification: %w", err)
	}
	return nil
}
