package subscription

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/services/billing"
)

// Sentinel errors mapped to HTTP statuses by the handlers
var (
	ErrNotFound          = errors.New("subscription or owner not found")
	ErrAlreadySubscribed = errors.New("user already has an active or pending subscription")
	ErrNotAuthorized     = errors.New("not authorized for this subscription")
	ErrGateway           = errors.New("billing gateway error")
	ErrInvalidWebhook    = errors.New("webhook verification failed")
)

// Service owns all state transitions for subscriptions, keeping local records
// consistent with the billing provider's view
type Service struct {
	db      *gorm.DB
	gateway billing.Gateway
}

// NewService creates a subscription lifecycle service
func NewService(db *gorm.DB, gateway billing.Gateway) *Service {
	return &Service{db: db, gateway: gateway}
}

// CreateInput carries the plan selection for a new subscription
type CreateInput struct {
	PlanType      models.PlanType      `json:"plan_type" binding:"required"`
	Amount        float64              `json:"amount" binding:"required"`
	Currency      string               `json:"currency"`
	BillingCycle  models.BillingCycle  `json:"billing_cycle"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// CreateResult is returned from Create; ClientSecret is only set on the
// Stripe checkout path
type CreateResult struct {
	Subscription *models.Subscription `json:"subscription"`
	ClientSecret string               `json:"client_secret,omitempty"`
}

// resolveOwner maps the user's role to their worker or company profile.
// Exactly one side of the owner reference comes back set.
func (s *Service) resolveOwner(user *models.User) (models.SubscriptionOwner, error) {
	switch user.Role {
	case models.RoleWorker:
		var worker models.Worker
		if err := s.db.Where("user_id = ?", user.ID).First(&worker).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.SubscriptionOwner{}, fmt.Errorf("worker profile: %w", ErrNotFound)
			}
			return models.SubscriptionOwner{}, err
		}
		return models.WorkerOwner(worker.ID), nil
	case models.RoleCompany:
		var company models.Company
		if err := s.db.Where("user_id = ?", user.ID).First(&company).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.SubscriptionOwner{}, fmt.Errorf("company profile: %w", ErrNotFound)
			}
			return models.SubscriptionOwner{}, err
		}
		return models.CompanyOwner(company.ID), nil
	default:
		return models.SubscriptionOwner{}, fmt.Errorf("role %q cannot own a subscription: %w", user.Role, ErrNotFound)
	}
}

// Create starts a new subscription for the user. On the Stripe path it
// ensures a provider customer, creates the price and an incomplete provider
// subscription, and returns the payment-confirmation secret. On any other
// payment method the local record is created directly with payment pending.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*CreateResult, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}

	// Pre-check gives the friendly conflict error; the partial unique index
	// on (user_id, open status) closes the race between concurrent creates.
	var existing int64
	if err := s.db.Model(&models.Subscription{}).
		Where("user_id = ? AND status IN ?", userID, []models.SubscriptionStatus{models.SubscriptionActive, models.SubscriptionPending}).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrAlreadySubscribed
	}

	owner, err := s.resolveOwner(&user)
	if err != nil {
		return nil, err
	}

	sub, err := models.NewSubscription(userID, owner, input.PlanType, input.Amount, input.Currency, input.BillingCycle, input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	endDate := models.NextPeriodEnd(sub.BillingCycle, time.Now())
	sub.EndDate = &endDate

	if input.PaymentMethod != models.MethodStripe {
		if err := s.db.Create(sub).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrAlreadySubscribed
			}
			return nil, err
		}
		return &CreateResult{Subscription: sub}, nil
	}

	customerID, err := s.gateway.EnsureCustomer(ctx, user.StripeCustomerID, user.Name, user.Email, map[string]string{
		"user_id": user.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGateway)
	}
	if user.StripeCustomerID == "" {
		if err := s.db.Model(&user).Update("stripe_customer_id", customerID).Error; err != nil {
			return nil, err
		}
	}

	checkout, err := s.gateway.CreateSubscription(ctx, customerID, billing.Plan{
		Name:     fmt.Sprintf("%s Plan", input.PlanType),
		Amount:   input.Amount,
		Currency: sub.Currency,
		Interval: billingInterval(sub.BillingCycle),
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGateway)
	}

	sub.StripeSubscriptionID = checkout.SubscriptionID
	sub.StripeCustomerID = customerID
	if err := s.db.Create(sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}

	return &CreateResult{Subscription: sub, ClientSecret: checkout.ClientSecret}, nil
}

// authorize checks the requestor is the subscription's owning user or an admin
func authorize(sub *models.Subscription, requestorID uuid.UUID, role models.UserRole) error {
	if role == models.RoleAdmin || sub.UserID == requestorID {
		return nil
	}
	return ErrNotAuthorized
}

// Get loads a subscription, enforcing the ownership rule
func (s *Service) Get(id uuid.UUID, requestorID uuid.UUID, role models.UserRole) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sub, requestorID, role); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) find(id uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &sub, nil
}

// Cancel cancels the subscription. When linked to Stripe, the provider-side
// cancellation (immediate, with a final prorated invoice) must succeed before
// local state is touched.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, requestorID uuid.UUID, role models.UserRole) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sub, requestorID, role); err != nil {
		return nil, err
	}

	if sub.StripeSubscriptionID != "" {
		if err := s.gateway.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrGateway)
		}
	}

	updates := map[string]interface{}{
		"status":     models.SubscriptionCancelled,
		"auto_renew": false,
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Renew advances the subscription into its next billing period. Stripe-linked
// subscriptions renew provider-side on their own schedule and are mirrored by
// invoice webhooks; this refreshes the local period and marks payment pending
// until confirmation arrives.
func (s *Service) Renew(ctx context.Context, id uuid.UUID, requestorID uuid.UUID, role models.UserRole) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sub, requestorID, role); err != nil {
		return nil, err
	}

	now := time.Now()
	endDate := models.NextPeriodEnd(sub.BillingCycle, now)
	updates := map[string]interface{}{
		"status":         models.SubscriptionActive,
		"start_date":     now,
		"end_date":       endDate,
		"payment_status": models.PaymentStatePending,
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// ListForUser returns every subscription owned by the user
func (s *Service) ListForUser(userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// List returns all subscriptions (admin)
func (s *Service) List() ([]models.Subscription, error) {
	var subs []models.Subscription
	if err := s.db.Order("created_at DESC").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Update applies field updates directly, bypassing the state machine. Admin
// escape hatch; regular owners can only touch billing preferences through it.
func (s *Service) Update(id uuid.UUID, requestorID uuid.UUID, role models.UserRole, updates map[string]interface{}) (*models.Subscription, error) {
	sub, err := s.find(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(sub, requestorID, role); err != nil {
		return nil, err
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

// Delete hard-removes a subscription. Destructive admin escape hatch; normal
// lifecycle never deletes.
func (s *Service) Delete(id uuid.UUID, role models.UserRole) error {
	if role != models.RoleAdmin {
		return ErrNotAuthorized
	}
	result := s.db.Delete(&models.Subscription{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}
	return nil
}

func billingInterval(cycle models.BillingCycle) string {
	if cycle == models.BillingYearly {
		return "year"
	}
	return "month"
}

// HandleWebhook verifies and applies a provider webhook. Signature or parse
// failures return ErrInvalidWebhook; any other error is an internal failure.
// Per-event handler errors are logged and swallowed so one bad event does not
// trigger a redelivery storm.
func (s *Service) HandleWebhook(payload []byte, signature string) error {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalidWebhook)
	}

	// Stripe redelivers webhooks it considers undelivered. Dedup on the
	// provider event id so a redelivered payment_succeeded cannot create a
	// second Payment row.
	var seen models.WebhookEvent
	err = s.db.Where("provider_event_id = ?", event.ID).First(&seen).Error
	if err == nil {
		log.Printf("webhook: duplicate event %s (%s), acknowledging without re-applying", event.ID, event.RawType)
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	record := models.WebhookEvent{
		ProviderEventID: event.ID,
		EventType:       event.RawType,
	}

	applyErr := s.applyEvent(event)
	now := time.Now()
	record.Processed = applyErr == nil
	record.ProcessedAt = &now
	if applyErr != nil {
		// Swallowed per the provider's delivery contract: the remote side
		// must see success after signature verification.
		log.Printf("webhook: handler error for event %s (%s): %v", event.ID, event.RawType, applyErr)
		record.Error = applyErr.Error()
	}

	if err := s.db.Create(&record).Error; err != nil {
		log.Printf("webhook: failed to record event %s: %v", event.ID, err)
	}
	return nil
}

// applyEvent dispatches one verified event to its handler
func (s *Service) applyEvent(event *billing.Event) error {
	switch event.Kind {
	case billing.EventPaymentSucceeded:
		return s.applyPaymentSucceeded(event.Invoice)
	case billing.EventPaymentFailed:
		return s.applyPaymentFailed(event.Invoice)
	case billing.EventSubscriptionUpdated:
		return s.applySubscriptionUpdated(event.Subscription)
	case billing.EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(event.Subscription)
	case billing.EventUnhandled:
		log.Printf("webhook: unhandled event type %s", event.RawType)
		return nil
	default:
		log.Printf("webhook: unknown event kind %q (%s)", event.Kind, event.RawType)
		return nil
	}
}

// applyPaymentSucceeded activates the subscription, advances its period and
// records the payment. Unknown subscription ids are a no-op.
func (s *Service) applyPaymentSucceeded(inv *billing.Invoice) error {
	sub, ok, err := s.findByProviderID(inv.SubscriptionID)
	if err != nil || !ok {
		return err
	}

	endDate := models.NextPeriodEnd(sub.BillingCycle, time.Now())
	updates := map[string]interface{}{
		"status":         models.SubscriptionActive,
		"payment_status": models.PaymentStatePaid,
		"end_date":       endDate,
	}
	if err := s.db.Model(sub).Updates(updates).Error; err != nil {
		return err
	}

	payment := models.Payment{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Amount:         float64(inv.AmountPaid) / 100,
		Currency:       inv.Currency,
		Method:         models.MethodStripe,
		Status:         models.PaymentCompleted,
		TransactionID:  inv.PaymentIntentID,
		ReceiptURL:     inv.HostedInvoiceURL,
		BillingCycle:   sub.BillingCycle,
		PeriodStart:    inv.PeriodStart,
		PeriodEnd:      inv.PeriodEnd,
	}
	return s.db.Create(&payment).Error
}

// applyPaymentFailed marks the subscription past due
func (s *Service) applyPaymentFailed(inv *billing.Invoice) error {
	sub, ok, err := s.findByProviderID(inv.SubscriptionID)
	if err != nil || !ok {
		return err
	}
	return s.db.Model(sub).Updates(map[string]interface{}{
		"status":         models.SubscriptionPastDue,
		"payment_status": models.PaymentStateFailed,
	}).Error
}

// applySubscriptionUpdated mirrors the provider's status into the local vocabulary
func (s *Service) applySubscriptionUpdated(state *billing.SubscriptionState) error {
	sub, ok, err := s.findByProviderID(state.SubscriptionID)
	if err != nil || !ok {
		return err
	}

	updates := map[string]interface{}{
		"status":     mapProviderStatus(state.Status),
		"auto_renew": !state.CancelAtPeriodEnd,
	}
	if state.CurrentPeriodEnd != nil {
		updates["end_date"] = *state.CurrentPeriodEnd
	}
	return s.db.Model(sub).Updates(updates).Error
}

// applySubscriptionDeleted marks the subscription cancelled
func (s *Service) applySubscriptionDeleted(state *billing.SubscriptionState) error {
	sub, ok, err := s.findByProviderID(state.SubscriptionID)
	if err != nil || !ok {
		return err
	}
	return s.db.Model(sub).Update("status", models.SubscriptionCancelled).Error
}

// findByProviderID looks a subscription up by its Stripe id. A missing row is
// not an error: events for unknown subscriptions are acknowledged no-ops.
func (s *Service) findByProviderID(providerID string) (*models.Subscription, bool, error) {
	if providerID == "" {
		return nil, false, nil
	}
	var sub models.Subscription
	err := s.db.Where("stripe_subscription_id = ?", providerID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("webhook: no subscription with provider id %s", providerID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &sub, true, nil
}

// mapProviderStatus translates Stripe subscription statuses into the local vocabulary
func mapProviderStatus(providerStatus string) models.SubscriptionStatus {
	switch providerStatus {
	case "active", "trialing":
		return models.SubscriptionActive
	case "past_due":
		return models.SubscriptionPastDue
	case "unpaid":
		return models.SubscriptionFailed
	case "canceled":
		return models.SubscriptionCancelled
	case "incomplete":
		return models.SubscriptionPending
	case "incomplete_expired":
		return models.SubscriptionExpired
	case "paused":
		return models.SubscriptionPaused
	default:
		return models.SubscriptionInactive
	}
}
