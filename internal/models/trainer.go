package models

import (
	"github.com/google/uuid"
)

// Trainer is the profile of a user who publishes training programs
type Trainer struct {
	Base
	UserID            uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User              User            `gorm:"foreignKey:UserID" json:"-"`
	CompanyID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"company_id"`
	Company           Company         `gorm:"foreignKey:CompanyID" json:"-"`
	FirstName         string          `gorm:"type:varchar(30);not null" json:"first_name"`
	LastName          string          `gorm:"type:varchar(30);not null" json:"last_name"`
	Specialization    string          `gorm:"type:varchar(50);not null" json:"specialization"`
	Certifications    []Certification `gorm:"foreignKey:TrainerID" json:"certifications,omitempty"`
	YearsOfExperience int             `gorm:"default:0" json:"years_of_experience"`
	Bio               string          `gorm:"type:varchar(500)" json:"bio"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
}

// Specializations accepted for trainer profiles
var Specializations = []string{
	"Safety Training",
	"Technical Skills",
	"Compliance",
	"Leadership",
	"Quality Control",
	"Operations",
	"Other",
}
