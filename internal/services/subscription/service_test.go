package subscription

import (
	"context"
	"errors"
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
	"github.com/shiftlink/backend/internal/services/billing"
)

// fakeGateway implements billing.Gateway in memory
type fakeGateway struct {
	customerID   string
	clientSecret string
	nextEvent    *billing.Event
	verifyErr    error
	createErr    error

	cancelled  []string
	customers  int
	subCreates int
}

func (f *fakeGateway) EnsureCustomer(_ context.Context, customerID, _, _ string, _ map[string]string) (string, error) {
	if customerID != "" {
		return customerID, nil
	}
	f.customers++
	return f.customerID, nil
}

func (f *fakeGateway) CreateSubscription(_ context.Context, _ string, _ billing.Plan) (*billing.CheckoutResult, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.subCreates++
	return &billing.CheckoutResult{
		SubscriptionID: "sub_test_123",
		CustomerID:     f.customerID,
		ClientSecret:   f.clientSecret,
	}, nil
}

func (f *fakeGateway) CancelSubscription(_ context.Context, subscriptionID string) error {
	f.cancelled = append(f.cancelled, subscriptionID)
	return nil
}

func (f *fakeGateway) VerifyWebhook(_ []byte, _ string) (*billing.Event, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.nextEvent, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Worker{},
		&models.Company{},
		&models.Subscription{},
		&models.Payment{},
		&models.WebhookEvent{},
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func createWorkerUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := models.User{
		Name:         "Test Worker",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         models.RoleWorker,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)

	worker := models.Worker{
		UserID:    user.ID,
		FirstName: "Test",
		LastName:  "Worker",
		IsActive:  true,
	}
	require.NoError(t, db.Create(&worker).Error)
	return &user
}

func TestCreateWithoutGatewayMethod(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	user := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanPremium,
		Amount:        29.99,
		BillingCycle:  models.BillingMonthly,
		PaymentMethod: models.MethodCreditCard,
	})
	require.NoError(t, err)

	sub := result.Subscription
	assert.Equal(t, models.SubscriptionActive, sub.Status)
	assert.Equal(t, models.PaymentStatePending, sub.PaymentStatus)
	assert.Equal(t, "USD", sub.Currency)
	assert.Empty(t, result.ClientSecret)
	assert.Zero(t, gw.customers, "non-Stripe path must not touch the gateway")
	require.NotNil(t, sub.EndDate)
	expected := time.Now().AddDate(0, 1, 0)
	assert.WithinDuration(t, expected, *sub.EndDate, time.Minute)
	require.NotNil(t, sub.WorkerID)
	assert.Nil(t, sub.CompanyID)
}

func TestCreateStripePath(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{customerID: "cus_test_1", clientSecret: "pi_secret_abc"}
	service := NewService(db, gw)
	user := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodStripe,
	})
	require.NoError(t, err)

	assert.Equal(t, "pi_secret_abc", result.ClientSecret)
	assert.Equal(t, "sub_test_123", result.Subscription.StripeSubscriptionID)
	assert.Equal(t, "cus_test_1", result.Subscription.StripeCustomerID)

	// New customer id lands on the user record
	var refreshed models.User
	require.NoError(t, db.First(&refreshed, "id = ?", user.ID).Error)
	assert.Equal(t, "cus_test_1", refreshed.StripeCustomerID)
}

func TestCreateRejectsSecondOpenSubscription(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})
	user := createWorkerUser(t, db)

	input := CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	}
	_, err := service.Create(context.Background(), user.ID, input)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), user.ID, input)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

// subscriptionUniqueIndexSQL mirrors the partial index the production
// migration creates; sqlite supports the same syntax
const subscriptionUniqueIndexSQL = `
	CREATE UNIQUE INDEX idx_subscriptions_one_open_per_user
	ON subscriptions (user_id)
	WHERE status IN ('active', 'pending') AND deleted_at IS NULL
`

func TestCreateConcurrentDuplicateMapsToConflict(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Exec(subscriptionUniqueIndexSQL).Error)

	service := NewService(db, &fakeGateway{})
	user := createWorkerUser(t, db)
	var worker models.Worker
	require.NoError(t, db.First(&worker, "user_id = ?", user.ID).Error)

	// A rival create lands in the window between the service's open-
	// subscription pre-check and its own insert. The callback fires after the
	// pre-check has already passed, so only the unique index can stop it.
	raced := false
	err := db.Callback().Create().Before("gorm:create").Register("rival_create", func(tx *gorm.DB) {
		if raced || tx.Statement.Table != "subscriptions" {
			return
		}
		raced = true
		rival, rivalErr := models.NewSubscription(user.ID, models.WorkerOwner(worker.ID),
			models.PlanBasic, 9.99, "USD", models.BillingMonthly, models.MethodCreditCard)
		if rivalErr != nil {
			t.Errorf("building rival subscription: %v", rivalErr)
			return
		}
		if createErr := tx.Session(&gorm.Session{NewDB: true}).Create(rival).Error; createErr != nil {
			t.Errorf("inserting rival subscription: %v", createErr)
		}
	})
	require.NoError(t, err)

	_, err = service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	})
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
	assert.True(t, raced, "rival insert must land before the service insert")
}

func TestCreateAllowsNewAfterCancellation(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})
	user := createWorkerUser(t, db)

	input := CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	}
	result, err := service.Create(context.Background(), user.ID, input)
	require.NoError(t, err)

	_, err = service.Cancel(context.Background(), result.Subscription.ID, user.ID, models.RoleWorker)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), user.ID, input)
	assert.NoError(t, err)
}

func TestCreateGatewayFailureLeavesNoRecord(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{customerID: "cus_x", createErr: errors.New("card declined")}
	service := NewService(db, gw)
	user := createWorkerUser(t, db)

	_, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodStripe,
	})
	assert.ErrorIs(t, err, ErrGateway)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateMissingProfile(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})

	user := models.User{
		Name:         "No Profile",
		Email:        "noprofile@example.com",
		PasswordHash: "x",
		Role:         models.RoleWorker,
	}
	require.NoError(t, db.Create(&user).Error)

	_, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelCallsGatewayForLinkedSubscription(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{customerID: "cus_1", clientSecret: "secret"}
	service := NewService(db, gw)
	user := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodStripe,
	})
	require.NoError(t, err)

	sub, err := service.Cancel(context.Background(), result.Subscription.ID, user.ID, models.RoleWorker)
	require.NoError(t, err)

	assert.Equal(t, []string{"sub_test_123"}, gw.cancelled)

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, stored.Status)
	assert.False(t, stored.AutoRenew)
}

func TestCancelForbiddenForOtherUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})
	owner := createWorkerUser(t, db)
	stranger := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), owner.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	})
	require.NoError(t, err)

	_, err = service.Cancel(context.Background(), result.Subscription.ID, stranger.ID, models.RoleWorker)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// Admins may cancel on the owner's behalf
	_, err = service.Cancel(context.Background(), result.Subscription.ID, stranger.ID, models.RoleAdmin)
	assert.NoError(t, err)
}

func TestRenewAdvancesPeriod(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})
	user := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        99.99,
		BillingCycle:  models.BillingYearly,
		PaymentMethod: models.MethodCreditCard,
	})
	require.NoError(t, err)

	// Simulate a paid, nearly-expired subscription
	past := time.Now().AddDate(0, 0, 2)
	require.NoError(t, db.Model(result.Subscription).Updates(map[string]interface{}{
		"payment_status": models.PaymentStatePaid,
		"end_date":       past,
	}).Error)

	_, err = service.Renew(context.Background(), result.Subscription.ID, user.ID, models.RoleWorker)
	require.NoError(t, err)

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", result.Subscription.ID).Error)
	assert.Equal(t, models.SubscriptionActive, stored.Status)
	assert.Equal(t, models.PaymentStatePending, stored.PaymentStatus)
	require.NotNil(t, stored.EndDate)
	assert.WithinDuration(t, time.Now().AddDate(1, 0, 0), *stored.EndDate, time.Minute)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, &fakeGateway{})
	user := createWorkerUser(t, db)

	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanBasic,
		Amount:        9.99,
		PaymentMethod: models.MethodCreditCard,
	})
	require.NoError(t, err)

	err = service.Delete(result.Subscription.ID, models.RoleWorker)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, service.Delete(result.Subscription.ID, models.RoleAdmin))
	err = service.Delete(result.Subscription.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func stripeLinkedSubscription(t *testing.T, db *gorm.DB, service *Service, gw *fakeGateway) *models.Subscription {
	t.Helper()
	user := createWorkerUser(t, db)
	gw.customerID = "cus_hook"
	result, err := service.Create(context.Background(), user.ID, CreateInput{
		PlanType:      models.PlanPremium,
		Amount:        29.99,
		PaymentMethod: models.MethodStripe,
	})
	require.NoError(t, err)
	return result.Subscription
}

func TestWebhookPaymentSucceeded(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	sub := stripeLinkedSubscription(t, db, service, gw)

	gw.nextEvent = &billing.Event{
		ID:      "evt_1",
		Kind:    billing.EventPaymentSucceeded,
		RawType: "invoice.payment_succeeded",
		Invoice: &billing.Invoice{
			SubscriptionID:   sub.StripeSubscriptionID,
			AmountPaid:       2999,
			Currency:         "usd",
			PaymentIntentID:  "pi_1",
			HostedInvoiceURL: "https://stripe.example/invoice/1",
			PeriodStart:      time.Now(),
			PeriodEnd:        time.Now().AddDate(0, 1, 0),
		},
	}
	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionActive, stored.Status)
	assert.Equal(t, models.PaymentStatePaid, stored.PaymentStatus)

	var payments []models.Payment
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.InDelta(t, 29.99, payments[0].Amount, 0.001)
	assert.Equal(t, "pi_1", payments[0].TransactionID)
	assert.Equal(t, models.PaymentCompleted, payments[0].Status)
}

func TestWebhookDuplicateEventAppliedOnce(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	sub := stripeLinkedSubscription(t, db, service, gw)

	gw.nextEvent = &billing.Event{
		ID:      "evt_dup",
		Kind:    billing.EventPaymentSucceeded,
		RawType: "invoice.payment_succeeded",
		Invoice: &billing.Invoice{
			SubscriptionID:  sub.StripeSubscriptionID,
			AmountPaid:      2999,
			Currency:        "usd",
			PaymentIntentID: "pi_dup",
			PeriodStart:     time.Now(),
			PeriodEnd:       time.Now().AddDate(0, 1, 0),
		},
	}

	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))
	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var count int64
	require.NoError(t, db.Model(&models.Payment{}).Where("subscription_id = ?", sub.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "redelivered event must not create a second payment")
}

func TestWebhookPaymentFailed(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	sub := stripeLinkedSubscription(t, db, service, gw)

	gw.nextEvent = &billing.Event{
		ID:      "evt_fail",
		Kind:    billing.EventPaymentFailed,
		RawType: "invoice.payment_failed",
		Invoice: &billing.Invoice{SubscriptionID: sub.StripeSubscriptionID},
	}
	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionPastDue, stored.Status)
	assert.Equal(t, models.PaymentStateFailed, stored.PaymentStatus)
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	sub := stripeLinkedSubscription(t, db, service, gw)

	gw.nextEvent = &billing.Event{
		ID:           "evt_del",
		Kind:         billing.EventSubscriptionDeleted,
		RawType:      "customer.subscription.deleted",
		Subscription: &billing.SubscriptionState{SubscriptionID: sub.StripeSubscriptionID, Status: "canceled"},
	}
	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionCancelled, stored.Status)
}

func TestWebhookSubscriptionUpdatedMapsStatus(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{}
	service := NewService(db, gw)
	sub := stripeLinkedSubscription(t, db, service, gw)

	periodEnd := time.Now().AddDate(0, 1, 0)
	gw.nextEvent = &billing.Event{
		ID:      "evt_upd",
		Kind:    billing.EventSubscriptionUpdated,
		RawType: "customer.subscription.updated",
		Subscription: &billing.SubscriptionState{
			SubscriptionID:    sub.StripeSubscriptionID,
			Status:            "past_due",
			CancelAtPeriodEnd: true,
			CurrentPeriodEnd:  &periodEnd,
		},
	}
	require.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var stored models.Subscription
	require.NoError(t, db.First(&stored, "id = ?", sub.ID).Error)
	assert.Equal(t, models.SubscriptionPastDue, stored.Status)
	assert.False(t, stored.AutoRenew)
	require.NotNil(t, stored.EndDate)
	assert.WithinDuration(t, periodEnd, *stored.EndDate, time.Second)
}

func TestWebhookUnknownSubscriptionIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{
		nextEvent: &billing.Event{
			ID:      "evt_unknown",
			Kind:    billing.EventPaymentSucceeded,
			RawType: "invoice.payment_succeeded",
			Invoice: &billing.Invoice{SubscriptionID: "sub_nobody"},
		},
	}
	service := NewService(db, gw)

	assert.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))
}

func TestWebhookSignatureFailureRejected(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{verifyErr: errors.New("bad signature")}
	service := NewService(db, gw)

	err := service.HandleWebhook([]byte("{}"), "bad")
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func TestWebhookUnhandledEventAcknowledged(t *testing.T) {
	db := setupTestDB(t)
	gw := &fakeGateway{
		nextEvent: &billing.Event{
			ID:      "evt_other",
			Kind:    billing.EventUnhandled,
			RawType: "charge.refunded",
		},
	}
	service := NewService(db, gw)

	assert.NoError(t, service.HandleWebhook([]byte("{}"), "sig"))

	var record models.WebhookEvent
	require.NoError(t, db.First(&record, "provider_event_id = ?", "evt_other").Error)
	assert.True(t, record.Processed)
}
