package models

import (
	"time"
)

// WebhookEvent records a billing-provider event that has been processed.
// Stripe redelivers webhooks it considers undelivered; keying on the provider
// event id lets redeliveries be acknowledged without re-applying them.
type WebhookEvent struct {
	Base
	ProviderEventID string     `gorm:"type:varchar(100);uniqueIndex;not null" json:"provider_event_id"`
	EventType       string     `gorm:"type:varchar(100);not null" json:"event_type"`
	Processed       bool       `gorm:"default:false" json:"processed"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	Error           string     `gorm:"type:text" json:"error,omitempty"`
}
