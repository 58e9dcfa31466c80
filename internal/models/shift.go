package models

import (
	"time"

	"github.com/google/uuid"
)

// ShiftStatus represents the lifecycle state of a shift
type ShiftStatus string

const (
	ShiftOpen       ShiftStatus = "open"
	ShiftFilled     ShiftStatus = "filled"
	ShiftInProgress ShiftStatus = "in-progress"
	ShiftCompleted  ShiftStatus = "completed"
	ShiftCancelled  ShiftStatus = "cancelled"
)

// ShiftRequestStatus represents the state of a worker's request to join a shift
type ShiftRequestStatus string

const (
	RequestPending   ShiftRequestStatus = "pending"
	RequestApproved  ShiftRequestStatus = "approved"
	RequestRejected  ShiftRequestStatus = "rejected"
	RequestCompleted ShiftRequestStatus = "completed"
	RequestCancelled ShiftRequestStatus = "cancelled"
)

// AssignmentStatus represents the state of a worker assigned to a shift
type AssignmentStatus string

const (
	AssignmentConfirmed AssignmentStatus = "confirmed"
	AssignmentCompleted AssignmentStatus = "completed"
	AssignmentNoShow    AssignmentStatus = "no-show"
	AssignmentLate      AssignmentStatus = "late"
)

// ShiftRequest is a worker's application to work a shift
type ShiftRequest struct {
	Base
	ShiftID     uuid.UUID          `gorm:"type:uuid;index;not null" json:"shift_id"`
	WorkerID    uuid.UUID          `gorm:"type:uuid;index;not null" json:"worker_id"`
	Worker      Worker             `gorm:"foreignKey:WorkerID" json:"-"`
	Status      ShiftRequestStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	RequestedAt time.Time          `json:"requested_at"`
	ApprovedBy  *uuid.UUID         `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time         `json:"approved_at,omitempty"`
}

// ShiftAssignment records a worker scheduled onto a shift
type ShiftAssignment struct {
	Base
	ShiftID    uuid.UUID        `gorm:"type:uuid;index;not null" json:"shift_id"`
	WorkerID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"worker_id"`
	Worker     Worker           `gorm:"foreignKey:WorkerID" json:"-"`
	AssignedAt time.Time        `json:"assigned_at"`
	Status     AssignmentStatus `gorm:"type:varchar(20);default:'confirmed'" json:"status"`
}

// Shift is a block of work a company needs covered
type Shift struct {
	Base
	CompanyID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"company_id"`
	Company         Company           `gorm:"foreignKey:CompanyID" json:"-"`
	JobRoleID       uuid.UUID         `gorm:"type:uuid;index;not null" json:"job_role_id"`
	JobRole         JobRole           `gorm:"foreignKey:JobRoleID" json:"-"`
	Title           string            `gorm:"type:varchar(100);not null" json:"title"`
	Description     string            `gorm:"type:varchar(500)" json:"description"`
	StartDate       time.Time         `gorm:"not null" json:"start_date"`
	EndDate         time.Time         `gorm:"not null" json:"end_date"`
	StartTime       string            `gorm:"type:varchar(5);not null" json:"start_time"` // "HH:mm"
	EndTime         string            `gorm:"type:varchar(5);not null" json:"end_time"`   // "HH:mm"
	RequiredWorkers int               `gorm:"not null" json:"required_workers"`
	AssignedWorkers []ShiftAssignment `gorm:"foreignKey:ShiftID" json:"assigned_workers,omitempty"`
	Requests        []ShiftRequest    `gorm:"foreignKey:ShiftID" json:"requests,omitempty"`
	Location        string            `gorm:"type:varchar(255);not null" json:"location"`
	PayRate         float64           `gorm:"type:decimal(10,2);default:0" json:"pay_rate"`
	Status          ShiftStatus       `gorm:"type:varchar(20);default:'open'" json:"status"`
	IsActive        bool              `gorm:"default:true" json:"is_active"`
}

// IsFull reports whether the shift has all required workers assigned
func (s *Shift) IsFull() bool {
	return len(s.AssignedWorkers) >= s.RequiredWorkers
}
