package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriptionRequiresExactlyOneOwner(t *testing.T) {
	userID := uuid.New()
	workerID := uuid.New()
	companyID := uuid.New()

	_, err := NewSubscription(userID, SubscriptionOwner{}, PlanBasic, 9.99, "USD", BillingMonthly, MethodStripe)
	assert.ErrorIs(t, err, ErrAmbiguousOwner)

	_, err = NewSubscription(userID, SubscriptionOwner{Worker: &workerID, Company: &companyID}, PlanBasic, 9.99, "USD", BillingMonthly, MethodStripe)
	assert.ErrorIs(t, err, ErrAmbiguousOwner)

	sub, err := NewSubscription(userID, WorkerOwner(workerID), PlanBasic, 9.99, "USD", BillingMonthly, MethodStripe)
	require.NoError(t, err)
	require.NotNil(t, sub.WorkerID)
	assert.Equal(t, workerID, *sub.WorkerID)
	assert.Nil(t, sub.CompanyID)

	sub, err = NewSubscription(userID, CompanyOwner(companyID), PlanBasic, 9.99, "USD", BillingMonthly, MethodStripe)
	require.NoError(t, err)
	require.NotNil(t, sub.CompanyID)
	assert.Nil(t, sub.WorkerID)
}

func TestNewSubscriptionDefaults(t *testing.T) {
	sub, err := NewSubscription(uuid.New(), WorkerOwner(uuid.New()), PlanPremium, 29.99, "", "", MethodCreditCard)
	require.NoError(t, err)

	assert.Equal(t, "USD", sub.Currency)
	assert.Equal(t, BillingMonthly, sub.BillingCycle)
	assert.Equal(t, SubscriptionActive, sub.Status)
	assert.Equal(t, PaymentStatePending, sub.PaymentStatus)
	assert.True(t, sub.AutoRenew)
}

func TestNextPeriodEnd(t *testing.T) {
	now := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC), NextPeriodEnd(BillingMonthly, now))
	assert.Equal(t, time.Date(2027, 1, 15, 12, 0, 0, 0, time.UTC), NextPeriodEnd(BillingYearly, now))

	// Month-end overflow follows time.AddDate semantics
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), NextPeriodEnd(BillingMonthly, jan31))
}
