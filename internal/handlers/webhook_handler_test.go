package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/services/billing"
	"github.com/shiftlink/backend/internal/services/subscription"
)

// stubGateway returns a canned webhook verification result
type stubGateway struct {
	event *billing.Event
	err   error
}

func (s *stubGateway) EnsureCustomer(context.Context, string, string, string, map[string]string) (string, error) {
	return "cus_stub", nil
}

func (s *stubGateway) CreateSubscription(context.Context, string, billing.Plan) (*billing.CheckoutResult, error) {
	return &billing.CheckoutResult{}, nil
}

func (s *stubGateway) CancelSubscription(context.Context, string) error {
	return nil
}

func (s *stubGateway) VerifyWebhook([]byte, string) (*billing.Event, error) {
	return s.event, s.err
}

func setupWebhookRouter(t *testing.T, gw billing.Gateway) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Subscription{}, &models.Payment{}, &models.WebhookEvent{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	service := subscription.NewService(db, gw)
	handler := NewWebhookHandler(service)

	router := gin.New()
	router.POST("/api/v1/webhooks/stripe", handler.HandleStripeWebhook)
	return router, db
}

func TestStripeWebhookAcknowledgesVerifiedEvent(t *testing.T) {
	router, _ := setupWebhookRouter(t, &stubGateway{
		event: &billing.Event{ID: "evt_ok", Kind: billing.EventUnhandled, RawType: "charge.refunded"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received": true}`, w.Body.String())
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	router, _ := setupWebhookRouter(t, &stubGateway{err: errors.New("bad signature")})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStripeWebhookAcknowledgesUnknownSubscription(t *testing.T) {
	router, _ := setupWebhookRouter(t, &stubGateway{
		event: &billing.Event{
			ID:      "evt_unknown_sub",
			Kind:    billing.EventPaymentSucceeded,
			RawType: "invoice.payment_succeeded",
			Invoice: &billing.Invoice{SubscriptionID: "sub_missing"},
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStripeWebhookInternalFailureReturns500(t *testing.T) {
	router, db := setupWebhookRouter(t, &stubGateway{
		event: &billing.Event{ID: "evt_db_down", Kind: billing.EventUnhandled, RawType: "charge.refunded"},
	})

	// A verified event that fails before being applied is an internal error,
	// not a verification failure
	require.NoError(t, db.Migrator().DropTable(&models.WebhookEvent{}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewBufferString(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=valid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
