package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a single payment transaction
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Payment is a single monetary transaction tied to one subscription.
// Rows are created when a billing event succeeds and are never mutated
// afterwards outside the admin endpoints.
type Payment struct {
	Base
	SubscriptionID uuid.UUID     `gorm:"type:uuid;index;not null" json:"subscription_id"`
	Subscription   Subscription  `gorm:"foreignKey:SubscriptionID" json:"-"`
	UserID         uuid.UUID     `gorm:"type:uuid;index;not null" json:"user_id"`
	User           User          `gorm:"foreignKey:UserID" json:"-"`
	Amount         float64       `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency       string        `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Method         PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status         PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	TransactionID  string        `gorm:"type:varchar(100);not null" json:"transaction_id"`
	ReceiptURL     string        `gorm:"type:varchar(255)" json:"receipt_url"`
	BillingCycle   BillingCycle  `gorm:"type:varchar(10);not null" json:"billing_cycle"`
	PeriodStart    time.Time     `gorm:"not null" json:"period_start"`
	PeriodEnd      time.Time     `gorm:"not null" json:"period_end"`
	Metadata       JSON          `gorm:"type:jsonb" json:"metadata"`
}
