package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/price"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// callTimeout bounds every provider call; Stripe has no visible SLA here so a
// conservative single-digit-seconds deadline applies.
const callTimeout = 8 * time.Second

// StripeGateway implements Gateway against the Stripe API
type StripeGateway struct {
	webhookSecret string
}

// NewStripeGateway creates a StripeGateway with the given API key and webhook
// signing secret
func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	stripe.Key = apiKey
	return &StripeGateway{webhookSecret: webhookSecret}
}

// EnsureCustomer returns the existing Stripe customer or creates a new one
func (g *StripeGateway) EnsureCustomer(ctx context.Context, customerID, name, email string, metadata map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if customerID != "" {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		c, err := customer.Get(customerID, params)
		if err != nil {
			return "", fmt.Errorf("stripe: retrieve customer: %w", err)
		}
		return c.ID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: create customer: %w", err)
	}
	return c.ID, nil
}

// CreateSubscription creates a recurring price and an incomplete subscription,
// expanding the latest invoice so the payment-confirmation secret comes back
// in one round trip.
func (g *StripeGateway) CreateSubscription(ctx context.Context, customerID string, plan Plan) (*CheckoutResult, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	priceParams := &stripe.PriceParams{
		UnitAmount: stripe.Int64(int64(plan.Amount * 100)),
		Currency:   stripe.String(plan.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(plan.Interval),
		},
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(plan.Name),
		},
	}
	priceParams.Context = ctx

	p, err := price.New(priceParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: create price: %w", err)
	}

	subParams := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(p.ID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
	}
	subParams.Context = ctx
	subParams.AddExpand("latest_invoice.confirmation_secret")

	sub, err := subscription.New(subParams)
	if err != nil {
		return nil, fmt.Errorf("stripe: create subscription: %w", err)
	}

	result := &CheckoutResult{
		SubscriptionID: sub.ID,
		CustomerID:     customerID,
	}
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil {
		result.ClientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}
	return result, nil
}

// CancelSubscription cancels the Stripe subscription immediately with a final
// prorated invoice
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	params := &stripe.SubscriptionCancelParams{
		InvoiceNow: stripe.Bool(true),
		Prorate:    stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := subscription.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe: cancel subscription: %w", err)
	}
	return nil
}

// invoicePayload is the slice of a Stripe invoice event this system reads.
// Parsed from the raw event rather than the SDK struct so Stripe API-version
// field moves don't break webhook handling.
type invoicePayload struct {
	Subscription     string `json:"subscription"`
	AmountPaid       int64  `json:"amount_paid"`
	Currency         string `json:"currency"`
	PaymentIntent    string `json:"payment_intent"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	PeriodStart      int64  `json:"period_start"`
	PeriodEnd        int64  `json:"period_end"`
}

// subscriptionPayload is the slice of a Stripe subscription event this system reads
type subscriptionPayload struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}

// VerifyWebhook validates the Stripe webhook signature against the exact byte
// stream and parses the event into the local vocabulary
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: webhook signature verification failed: %w", err)
	}

	parsed := &Event{
		ID:      event.ID,
		RawType: string(event.Type),
		Kind:    EventUnhandled,
	}

	switch event.Type {
	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv invoicePayload
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("stripe: parse invoice event: %w", err)
		}
		parsed.Invoice = &Invoice{
			SubscriptionID:   inv.Subscription,
			AmountPaid:       inv.AmountPaid,
			Currency:         inv.Currency,
			PaymentIntentID:  inv.PaymentIntent,
			HostedInvoiceURL: inv.HostedInvoiceURL,
			PeriodStart:      time.Unix(inv.PeriodStart, 0),
			PeriodEnd:        time.Unix(inv.PeriodEnd, 0),
		}
		if event.Type == "invoice.payment_succeeded" {
			parsed.Kind = EventPaymentSucceeded
		} else {
			parsed.Kind = EventPaymentFailed
		}

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("stripe: parse subscription event: %w", err)
		}
		state := &SubscriptionState{
			SubscriptionID:    sub.ID,
			Status:            sub.Status,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		}
		if sub.CurrentPeriodEnd > 0 {
			end := time.Unix(sub.CurrentPeriodEnd, 0)
			state.CurrentPeriodEnd = &end
		}
		parsed.Subscription = state
		if event.Type == "customer.subscription.updated" {
			parsed.Kind = EventSubscriptionUpdated
		} else {
			parsed.Kind = EventSubscriptionDeleted
		}
	}

	return parsed, nil
}
