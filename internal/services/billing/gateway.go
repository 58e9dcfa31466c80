package billing

import (
	"context"
	"time"
)

// EventKind is the closed set of provider webhook events this system reacts
// to. Anything else maps to EventUnhandled so new provider event types show
// up in logs instead of disappearing into a default branch.
type EventKind string

const (
	EventPaymentSucceeded    EventKind = "payment_succeeded"
	EventPaymentFailed       EventKind = "payment_failed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventUnhandled           EventKind = "unhandled"
)

// Invoice carries the fields of a provider invoice the lifecycle service
// consumes. Amounts are in the provider's minor unit (cents).
type Invoice struct {
	SubscriptionID   string
	AmountPaid       int64
	Currency         string
	PaymentIntentID  string
	HostedInvoiceURL string
	PeriodStart      time.Time
	PeriodEnd        time.Time
}

// SubscriptionState mirrors the provider's view of a subscription
type SubscriptionState struct {
	SubscriptionID    string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time
}

// Event is a verified, parsed webhook event
type Event struct {
	ID           string
	Kind         EventKind
	RawType      string
	Invoice      *Invoice
	Subscription *SubscriptionState
}

// Plan describes the recurring price to create provider-side
type Plan struct {
	Name     string
	Amount   float64 // major units, converted to cents by the gateway
	Currency string
	Interval string // "month" or "year"
}

// CheckoutResult is returned after creating a provider subscription
type CheckoutResult struct {
	SubscriptionID string
	CustomerID     string
	ClientSecret   string
}

// Gateway isolates all calls to the external payment provider. Every call is
// a stateless request/response; retry policy is left to the caller and to the
// provider's own webhook redelivery.
type Gateway interface {
	// EnsureCustomer returns the provider customer id for the user, creating
	// the customer when customerID is empty.
	EnsureCustomer(ctx context.Context, customerID, name, email string, metadata map[string]string) (string, error)

	// CreateSubscription creates a recurring price and an incomplete
	// subscription for the customer, returning the payment-confirmation
	// client secret.
	CreateSubscription(ctx context.Context, customerID string, plan Plan) (*CheckoutResult, error)

	// CancelSubscription cancels the provider subscription immediately,
	// invoicing outstanding usage with proration.
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// VerifyWebhook checks the payload signature against the webhook secret
	// and parses the event. Fails closed on any verification error.
	VerifyWebhook(payload []byte, signature string) (*Event, error)
}
