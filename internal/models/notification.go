package models

import (
	"github.com/google/uuid"
)

// NotificationType classifies what triggered a notification
type NotificationType string

const (
	NotifyShiftRequest       NotificationType = "shift_request"
	NotifyShiftApproval      NotificationType = "shift_approval"
	NotifyShiftRejection     NotificationType = "shift_rejection"
	NotifyShiftReminder      NotificationType = "shift_reminder"
	NotifySubscriptionExpiry NotificationType = "subscription_expiry"
	NotifyTrainingCompleted  NotificationType = "training_completed"
	NotifyPaymentSuccess     NotificationType = "payment_success"
	NotifyGeneral            NotificationType = "general"
)

// NotificationPriority orders notifications for clients
type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is an in-app message delivered to one user, optionally
// mirrored to their registered devices as a push notification.
type Notification struct {
	Base
	RecipientID   uuid.UUID            `gorm:"type:uuid;index;not null" json:"recipient_id"`
	Recipient     User                 `gorm:"foreignKey:RecipientID" json:"-"`
	SenderID      *uuid.UUID           `gorm:"type:uuid" json:"sender_id,omitempty"`
	Title         string               `gorm:"type:varchar(100);not null" json:"title"`
	Message       string               `gorm:"type:varchar(500);not null" json:"message"`
	Type          NotificationType     `gorm:"type:varchar(30);not null" json:"type"`
	RelatedEntity string               `gorm:"type:varchar(20)" json:"related_entity,omitempty"` // shift, training, subscription, user, company
	EntityID      *uuid.UUID           `gorm:"type:uuid" json:"entity_id,omitempty"`
	IsRead        bool                 `gorm:"default:false" json:"is_read"`
	Priority      NotificationPriority `gorm:"type:varchar(10);default:'medium'" json:"priority"`
}
