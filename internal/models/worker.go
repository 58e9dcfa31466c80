package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is an embedded postal address
type Address struct {
	Street  string `gorm:"type:varchar(255)" json:"street"`
	City    string `gorm:"type:varchar(100)" json:"city"`
	State   string `gorm:"type:varchar(100)" json:"state"`
	Zipcode string `gorm:"type:varchar(20)" json:"zipcode"`
	Country string `gorm:"type:varchar(100)" json:"country"`
}

// Certification is a credential held by a worker or trainer
type Certification struct {
	Base
	WorkerID      *uuid.UUID `gorm:"type:uuid;index" json:"worker_id,omitempty"`
	TrainerID     *uuid.UUID `gorm:"type:uuid;index" json:"trainer_id,omitempty"`
	Name          string     `gorm:"type:varchar(100);not null" json:"name"`
	Issuer        string     `gorm:"type:varchar(100)" json:"issuer"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	ExpiryDate    *time.Time `json:"expiry_date,omitempty"`
	CredentialID  string     `gorm:"type:varchar(100)" json:"credential_id"`
	CredentialURL string     `gorm:"type:varchar(255)" json:"credential_url"`
}

// WorkerAvailability holds a worker's weekly availability window for one day
type WorkerAvailability struct {
	Base
	WorkerID  uuid.UUID `gorm:"type:uuid;index;not null" json:"worker_id"`
	DayOfWeek string    `gorm:"type:varchar(10);not null" json:"day_of_week"` // monday..sunday
	Start     string    `gorm:"type:varchar(5)" json:"start"`                 // "HH:mm"
	End       string    `gorm:"type:varchar(5)" json:"end"`                   // "HH:mm"
	Available bool      `gorm:"default:false" json:"available"`
}

// Worker is the profile of a user who picks up shifts
type Worker struct {
	Base
	UserID         uuid.UUID            `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User           User                 `gorm:"foreignKey:UserID" json:"-"`
	FirstName      string               `gorm:"type:varchar(30);not null" json:"first_name"`
	LastName       string               `gorm:"type:varchar(30);not null" json:"last_name"`
	DateOfBirth    *time.Time           `json:"date_of_birth,omitempty"`
	Gender         string               `gorm:"type:varchar(10)" json:"gender"` // male, female, other
	Phone          string               `gorm:"type:varchar(20)" json:"phone"`
	Address        Address              `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	Skills         StringSlice          `gorm:"type:jsonb" json:"skills"`
	Certifications []Certification      `gorm:"foreignKey:WorkerID" json:"certifications,omitempty"`
	Availability   []WorkerAvailability `gorm:"foreignKey:WorkerID" json:"availability,omitempty"`
	PreferredRoles StringSlice          `gorm:"type:jsonb" json:"preferred_roles"`
	LocationRadius int                  `gorm:"default:10" json:"location_radius"` // miles
	RatingAverage  float64              `gorm:"type:decimal(3,2);default:0" json:"rating_average"`
	RatingCount    int                  `gorm:"default:0" json:"rating_count"`
	IsActive       bool                 `gorm:"default:true" json:"is_active"`
}
