package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of a platform user
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleCompany UserRole = "company"
	RoleWorker  UserRole = "worker"
	RoleTrainer UserRole = "trainer"
)

// User represents an account that can authenticate against the API
type User struct {
	Base
	Name             string     `gorm:"type:varchar(100);not null" json:"name"`
	Email            string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash     string     `gorm:"type:varchar(255);not null" json:"-"`
	Role             UserRole   `gorm:"type:varchar(20);not null;default:'worker'" json:"role"`
	Phone            string     `gorm:"type:varchar(20)" json:"phone"`
	StripeCustomerID string     `gorm:"type:varchar(100);index" json:"stripe_customer_id,omitempty"`
	IsActive         bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DeviceToken stores a push-notification token registered by a client device
type DeviceToken struct {
	Base
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Token    string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"token"`
	Platform string    `gorm:"type:varchar(20)" json:"platform"` // web, ios, android
}
