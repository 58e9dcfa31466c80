package models

import (
	"github.com/google/uuid"
)

// EmploymentType represents the kind of engagement a job role offers
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "full-time"
	EmploymentPartTime  EmploymentType = "part-time"
	EmploymentContract  EmploymentType = "contract"
	EmploymentTemporary EmploymentType = "temporary"
)

// JobRole is a role definition a company hires workers into
type JobRole struct {
	Base
	CompanyID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"company_id"`
	Company          Company        `gorm:"foreignKey:CompanyID" json:"-"`
	Title            string         `gorm:"type:varchar(100);not null" json:"title"`
	Slug             string         `gorm:"type:varchar(120);index" json:"slug"`
	Description      string         `gorm:"type:varchar(1000);not null" json:"description"`
	Requirements     StringSlice    `gorm:"type:jsonb" json:"requirements"`
	Responsibilities StringSlice    `gorm:"type:jsonb" json:"responsibilities"`
	SkillsRequired   StringSlice    `gorm:"type:jsonb" json:"skills_required"`
	HourlyRateMin    float64        `gorm:"type:decimal(10,2);default:0" json:"hourly_rate_min"`
	HourlyRateMax    float64        `gorm:"type:decimal(10,2);default:0" json:"hourly_rate_max"`
	Location         string         `gorm:"type:varchar(255);not null" json:"location"`
	EmploymentType   EmploymentType `gorm:"type:varchar(20);default:'temporary'" json:"employment_type"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
}
