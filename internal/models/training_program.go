package models

import (
	"github.com/google/uuid"
)

// TrainingContentType represents the media type of a training module
type TrainingContentType string

const (
	ContentVideo       TrainingContentType = "video"
	ContentDocument    TrainingContentType = "document"
	ContentQuiz        TrainingContentType = "quiz"
	ContentInteractive TrainingContentType = "interactive"
)

// TrainingModule is a single unit of content inside a training program
type TrainingModule struct {
	Base
	ProgramID   uuid.UUID           `gorm:"type:uuid;index;not null" json:"program_id"`
	Title       string              `gorm:"type:varchar(100);not null" json:"title"`
	Description string              `gorm:"type:varchar(500);not null" json:"description"`
	ContentType TrainingContentType `gorm:"type:varchar(20);not null" json:"content_type"`
	ContentURL  string              `gorm:"type:varchar(255)" json:"content_url"`
	Duration    int                 `gorm:"default:0" json:"duration"` // minutes
	SortOrder   int                 `gorm:"not null" json:"order"`
}

// TrainingProgram is a course published by a trainer on behalf of a company
type TrainingProgram struct {
	Base
	CompanyID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"company_id"`
	Company     Company          `gorm:"foreignKey:CompanyID" json:"-"`
	TrainerID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"trainer_id"`
	Trainer     Trainer          `gorm:"foreignKey:TrainerID" json:"-"`
	Title       string           `gorm:"type:varchar(100);not null" json:"title"`
	Description string           `gorm:"type:varchar(1000);not null" json:"description"`
	Category    string           `gorm:"type:varchar(50);not null" json:"category"`
	Modules     []TrainingModule `gorm:"foreignKey:ProgramID" json:"modules,omitempty"`
	Duration    int              `gorm:"default:0" json:"duration"` // minutes
	IsActive    bool             `gorm:"default:true" json:"is_active"`
}

// TrainingCategories accepted for programs
var TrainingCategories = []string{
	"Safety",
	"Technical Skills",
	"Compliance",
	"Soft Skills",
	"Leadership",
	"Quality Control",
	"Operations",
	"Other",
}
