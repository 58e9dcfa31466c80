package jobs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/queue"
	"github.com/shiftlink/backend/internal/services/notification"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Worker{},
		&models.Subscription{},
		&models.Notification{},
		&models.DeviceToken{},
	))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func seedSubscription(t *testing.T, db *gorm.DB, status models.SubscriptionStatus, endDate time.Time, autoRenew bool) *models.Subscription {
	t.Helper()
	user := models.User{
		Name:         "Sub Owner",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleWorker,
	}
	require.NoError(t, db.Create(&user).Error)

	worker := models.Worker{UserID: user.ID, FirstName: "S", LastName: "O"}
	require.NoError(t, db.Create(&worker).Error)

	sub, err := models.NewSubscription(user.ID, models.WorkerOwner(worker.ID),
		models.PlanBasic, 9.99, "USD", models.BillingMonthly, models.MethodCreditCard)
	require.NoError(t, err)
	sub.Status = status
	sub.EndDate = &endDate
	sub.AutoRenew = autoRenew
	require.NoError(t, db.Create(sub).Error)
	return sub
}

func TestExpirySweepMarksLapsedExpired(t *testing.T) {
	db := setupTestDB(t)
	notifications := notification.NewService(db, nil)
	job := NewSubscriptionExpiryJob(db, notifications)

	lapsed := seedSubscription(t, db, models.SubscriptionActive, time.Now().Add(-time.Hour), false)
	cancelled := seedSubscription(t, db, models.SubscriptionCancelled, time.Now().Add(-time.Hour), false)
	current := seedSubscription(t, db, models.SubscriptionActive, time.Now().AddDate(0, 1, 0), false)

	require.NoError(t, job.Handle(context.Background(), queue.Job{}))

	var lapsedStored models.Subscription
	require.NoError(t, db.First(&lapsedStored, "id = ?", lapsed.ID).Error)
	assert.Equal(t, models.SubscriptionExpired, lapsedStored.Status)

	var cancelledStored models.Subscription
	require.NoError(t, db.First(&cancelledStored, "id = ?", cancelled.ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, cancelledStored.Status, "cancelled stays terminal")

	var currentStored models.Subscription
	require.NoError(t, db.First(&currentStored, "id = ?", current.ID).Error)
	assert.Equal(t, models.SubscriptionActive, currentStored.Status)
}

func TestExpirySweepWarnsExpiringSubscribers(t *testing.T) {
	db := setupTestDB(t)
	notifications := notification.NewService(db, nil)
	job := NewSubscriptionExpiryJob(db, notifications)

	expiring := seedSubscription(t, db, models.SubscriptionActive, time.Now().AddDate(0, 0, 3), false)
	// Auto-renewing Stripe subscription renews on its own, no warning
	renewing := seedSubscription(t, db, models.SubscriptionActive, time.Now().AddDate(0, 0, 3), true)
	require.NoError(t, db.Model(renewing).Update("stripe_subscription_id", "sub_auto").Error)
	// Far-future subscription is outside the warning window
	seedSubscription(t, db, models.SubscriptionActive, time.Now().AddDate(0, 2, 0), false)

	require.NoError(t, job.Handle(context.Background(), queue.Job{}))

	var warned []models.Notification
	require.NoError(t, db.Where("type = ?", models.NotifySubscriptionExpiry).Find(&warned).Error)
	require.Len(t, warned, 1)
	assert.Equal(t, expiring.UserID, warned[0].RecipientID)
	require.NotNil(t, warned[0].EntityID)
	assert.Equal(t, expiring.ID, *warned[0].EntityID)
}
