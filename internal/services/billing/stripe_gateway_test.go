package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe's CLI does:
// HMAC-SHA256 over "<timestamp>.<payload>" with the webhook secret
func signPayload(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts.Unix(), payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(eventType, dataObject string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {"object": %s}
	}`, stripe.APIVersion, eventType, dataObject))
}

func TestVerifyWebhookRejectsBadSignature(t *testing.T) {
	gw := NewStripeGateway("sk_test_x", testWebhookSecret)

	payload := eventPayload("invoice.payment_succeeded", `{}`)
	_, err := gw.VerifyWebhook(payload, "t=123,v1=deadbeef")
	assert.Error(t, err)
}

func TestVerifyWebhookRejectsTamperedPayload(t *testing.T) {
	gw := NewStripeGateway("sk_test_x", testWebhookSecret)

	payload := eventPayload("invoice.payment_succeeded", `{}`)
	signature := signPayload(payload, time.Now())

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '
	_, err := gw.VerifyWebhook(tampered, signature)
	assert.Error(t, err)
}

func TestVerifyWebhookParsesInvoiceEvent(t *testing.T) {
	gw := NewStripeGateway("sk_test_x", testWebhookSecret)

	periodStart := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	periodEnd := periodStart.AddDate(0, 1, 0)
	payload := eventPayload("invoice.payment_succeeded", fmt.Sprintf(`{
		"id": "in_1",
		"subscription": "sub_42",
		"amount_paid": 2999,
		"currency": "usd",
		"payment_intent": "pi_42",
		"hosted_invoice_url": "https://invoice.stripe.com/i/in_1",
		"period_start": %d,
		"period_end": %d
	}`, periodStart.Unix(), periodEnd.Unix()))

	event, err := gw.VerifyWebhook(payload, signPayload(payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "evt_test_1", event.ID)
	assert.Equal(t, EventPaymentSucceeded, event.Kind)
	require.NotNil(t, event.Invoice)
	assert.Equal(t, "sub_42", event.Invoice.SubscriptionID)
	assert.EqualValues(t, 2999, event.Invoice.AmountPaid)
	assert.Equal(t, "pi_42", event.Invoice.PaymentIntentID)
	assert.True(t, event.Invoice.PeriodStart.Equal(periodStart))
	assert.True(t, event.Invoice.PeriodEnd.Equal(periodEnd))
}

func TestVerifyWebhookParsesSubscriptionEvent(t *testing.T) {
	gw := NewStripeGateway("sk_test_x", testWebhookSecret)

	periodEnd := time.Now().AddDate(0, 1, 0).Truncate(time.Second)
	payload := eventPayload("customer.subscription.updated", fmt.Sprintf(`{
		"id": "sub_42",
		"status": "past_due",
		"cancel_at_period_end": true,
		"current_period_end": %d
	}`, periodEnd.Unix()))

	event, err := gw.VerifyWebhook(payload, signPayload(payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionUpdated, event.Kind)
	require.NotNil(t, event.Subscription)
	assert.Equal(t, "sub_42", event.Subscription.SubscriptionID)
	assert.Equal(t, "past_due", event.Subscription.Status)
	assert.True(t, event.Subscription.CancelAtPeriodEnd)
	require.NotNil(t, event.Subscription.CurrentPeriodEnd)
	assert.True(t, event.Subscription.CurrentPeriodEnd.Equal(periodEnd))
}

func TestVerifyWebhookMapsUnknownTypeToUnhandled(t *testing.T) {
	gw := NewStripeGateway("sk_test_x", testWebhookSecret)

	payload := eventPayload("charge.refunded", `{"id": "ch_1"}`)
	event, err := gw.VerifyWebhook(payload, signPayload(payload, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, EventUnhandled, event.Kind)
	assert.Equal(t, "charge.refunded", event.RawType)
	assert.Nil(t, event.Invoice)
	assert.Nil(t, event.Subscription)
}
