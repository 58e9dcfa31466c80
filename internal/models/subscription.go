package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PlanType represents a subscription plan tier
type PlanType string

const (
	PlanFree       PlanType = "free"
	PlanBasic      PlanType = "basic"
	PlanPremium    PlanType = "premium"
	PlanEnterprise PlanType = "enterprise"
)

// SubscriptionStatus represents the status of a subscription
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionPastDue   SubscriptionStatus = "past_due"
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionFailed    SubscriptionStatus = "failed"
)

// PaymentState represents the payment state carried on a subscription
type PaymentState string

const (
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateFailed   PaymentState = "failed"
	PaymentStateRefunded PaymentState = "refunded"
)

// BillingCycle represents how often a subscription renews
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// PaymentMethod represents how a subscription or payment is funded
type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodStripe       PaymentMethod = "stripe"
)

// Subscription is a billing relationship between a user (through their worker
// or company profile) and a plan tier. At most one of WorkerID/CompanyID is
// set, depending on the owner's role.
type Subscription struct {
	Base
	UserID               uuid.UUID          `gorm:"type:uuid;index;not null" json:"user_id"`
	User                 User               `gorm:"foreignKey:UserID" json:"-"`
	WorkerID             *uuid.UUID         `gorm:"type:uuid;index" json:"worker_id,omitempty"`
	Worker               *Worker            `gorm:"foreignKey:WorkerID" json:"-"`
	CompanyID            *uuid.UUID         `gorm:"type:uuid;index" json:"company_id,omitempty"`
	Company              *Company           `gorm:"foreignKey:CompanyID" json:"-"`
	PlanType             PlanType           `gorm:"type:varchar(20);not null" json:"plan_type"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"status"`
	PaymentStatus        PaymentState       `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentMethod        PaymentMethod      `gorm:"type:varchar(20)" json:"payment_method"`
	BillingCycle         BillingCycle       `gorm:"type:varchar(10);default:'monthly'" json:"billing_cycle"`
	Amount               float64            `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency             string             `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	StartDate            time.Time          `json:"start_date"`
	EndDate              *time.Time         `json:"end_date,omitempty"`
	StripeSubscriptionID string             `gorm:"type:varchar(100);index" json:"stripe_subscription_id,omitempty"`
	StripeCustomerID     string             `gorm:"type:varchar(100)" json:"stripe_customer_id,omitempty"`
	AutoRenew            bool               `gorm:"default:true" json:"auto_renew"`
}

// ErrAmbiguousOwner is returned when a subscription names both a worker and a
// company owner, or neither.
var ErrAmbiguousOwner = errors.New("subscription must reference exactly one of worker or company")

// SubscriptionOwner identifies the profile a subscription belongs to.
// Exactly one of Worker or Company must be set.
type SubscriptionOwner struct {
	Worker  *uuid.UUID
	Company *uuid.UUID
}

// WorkerOwner builds an owner reference for a worker profile
func WorkerOwner(workerID uuid.UUID) SubscriptionOwner {
	return SubscriptionOwner{Worker: &workerID}
}

// CompanyOwner builds an owner reference for a company profile
func CompanyOwner(companyID uuid.UUID) SubscriptionOwner {
	return SubscriptionOwner{Company: &companyID}
}

func (o SubscriptionOwner) validate() error {
	if (o.Worker == nil) == (o.Company == nil) {
		return ErrAmbiguousOwner
	}
	return nil
}

// NewSubscription constructs a subscription with the exactly-one-owner
// invariant checked up front rather than at persistence time.
func NewSubscription(userID uuid.UUID, owner SubscriptionOwner, planType PlanType, amount float64, currency string, cycle BillingCycle, method PaymentMethod) (*Subscription, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	if currency == "" {
		currency = "USD"
	}
	if cycle == "" {
		cycle = BillingMonthly
	}
	return &Subscription{
		UserID:        userID,
		WorkerID:      owner.Worker,
		CompanyID:     owner.Company,
		PlanType:      planType,
		Status:        SubscriptionActive,
		PaymentStatus: PaymentStatePending,
		PaymentMethod: method,
		BillingCycle:  cycle,
		Amount:        amount,
		Currency:      currency,
		StartDate:     time.Now(),
		AutoRenew:     true,
	}, nil
}

// NextPeriodEnd returns now advanced by one billing cycle
func NextPeriodEnd(cycle BillingCycle, now time.Time) time.Time {
	if cycle == BillingYearly {
		return now.AddDate(1, 0, 0)
	}
	return now.AddDate(0, 1, 0)
}
