package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus represents the review state of a company's documents
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

// Company is the profile of a user who posts shifts and job roles
type Company struct {
	Base
	UserID                uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User                  User               `gorm:"foreignKey:UserID" json:"-"`
	Name                  string             `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Slug                  string             `gorm:"type:varchar(120);uniqueIndex" json:"slug"`
	Description           string             `gorm:"type:varchar(500);not null" json:"description"`
	Website               string             `gorm:"type:varchar(255)" json:"website"`
	Phone                 string             `gorm:"type:varchar(20)" json:"phone"`
	ContactEmail          string             `gorm:"type:varchar(255)" json:"contact_email"`
	Address               Address            `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Industry              string             `gorm:"type:varchar(50);not null" json:"industry"`
	Logo                  string             `gorm:"type:varchar(255)" json:"logo"`
	VerificationStatus    VerificationStatus `gorm:"type:varchar(20);default:'pending'" json:"verification_status"`
	VerificationDocuments StringSlice        `gorm:"type:jsonb" json:"verification_documents"`
	SubscriptionTier      PlanType           `gorm:"type:varchar(20);default:'free'" json:"subscription_tier"`
	SubscriptionExpiry    *time.Time         `json:"subscription_expiry,omitempty"`
	IsActive              bool               `gorm:"default:true" json:"is_active"`
}

// Industries accepted for company profiles
var Industries = []string{
	"Construction",
	"Healthcare",
	"Manufacturing",
	"Hospitality",
	"Retail",
	"Technology",
	"Transportation",
	"Other",
}

// ValidIndustry reports whether the given industry is accepted
func ValidIndustry(industry string) bool {
	for _, i := range Industries {
		if i == industry {
			return true
		}
	}
	return false
}
