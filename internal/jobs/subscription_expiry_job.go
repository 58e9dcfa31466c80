package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/queue"
	"github.com/shiftlink/backend/internal/services/notification"
)

// expiryWarningWindow is how far ahead of end_date we warn subscribers
const expiryWarningWindow = 7 * 24 * time.Hour

// SubscriptionExpiryJob expires lapsed subscriptions and warns subscribers
// whose current period is about to end
type SubscriptionExpiryJob struct {
	db            *gorm.DB
	notifications *notification.Service
}

// NewSubscriptionExpiryJob creates the expiry sweep job
func NewSubscriptionExpiryJob(db *gorm.DB, notifications *notification.Service) *SubscriptionExpiryJob {
	return &SubscriptionExpiryJob{db: db, notifications: notifications}
}

// Handle runs one expiry sweep
func (j *SubscriptionExpiryJob) Handle(ctx context.Context, _ queue.Job) error {
	if err := j.expireLapsed(); err != nil {
		return err
	}
	return j.warnExpiring(ctx)
}

// expireLapsed marks subscriptions whose period has ended as expired.
// Cancelled subscriptions keep their terminal status.
func (j *SubscriptionExpiryJob) expireLapsed() error {
	result := j.db.Model(&models.Subscription{}).
		Where("end_date < ? AND status NOT IN ?", time.Now(),
			[]models.SubscriptionStatus{models.SubscriptionCancelled, models.SubscriptionExpired}).
		Update("status", models.SubscriptionExpired)
	if result.Error != nil {
		return fmt.Errorf("failed to expire lapsed subscriptions: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("expiry sweep: marked %d subscriptions expired", result.RowsAffected)
	}
	return nil
}

// warnExpiring notifies subscribers whose active subscription ends within the
// warning window. Auto-renewing Stripe subscriptions are skipped: the gateway
// renews them without user action.
func (j *SubscriptionExpiryJob) warnExpiring(ctx context.Context) error {
	now := time.Now()
	var subs []models.Subscription
	err := j.db.
		Where("status = ? AND end_date BETWEEN ? AND ?", models.SubscriptionActive, now, now.Add(expiryWarningWindow)).
		Where("auto_renew = ? OR stripe_subscription_id = ''", false).
		Find(&subs).Error
	if err != nil {
		return fmt.Errorf("failed to load expiring subscriptions: %w", err)
	}

	for _, sub := range subs {
		daysLeft := int(time.Until(*sub.EndDate).Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		j.notifications.NotifySubscriptionExpiry(ctx, sub.UserID, sub.ID, daysLeft)
	}
	if len(subs) > 0 {
		log.Printf("expiry sweep: warned %d subscribers", len(subs))
	}
	return nil
}
