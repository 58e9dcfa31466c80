package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
)

// WorkerHandler handles worker profile requests
type WorkerHandler struct {
	db *gorm.DB
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(db *gorm.DB) *WorkerHandler {
	return &WorkerHandler{db: db}
}

// CreateWorkerRequest represents the request body for creating a worker profile
type CreateWorkerRequest struct {
	FirstName      string             `json:"first_name" binding:"required"`
	LastName       string             `json:"last_name" binding:"required"`
	DateOfBirth    *time.Time         `json:"date_of_birth"`
	Gender         string             `json:"gender"`
	Phone          string             `json:"phone"`
	Address        models.Address     `json:"address"`
	Skills         models.StringSlice `json:"skills"`
	PreferredRoles models.StringSlice `json:"preferred_roles"`
	LocationRadius int                `json:"location_radius"`
}

// CreateProfile creates the worker profile for the authenticated user
func (h *WorkerHandler) CreateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Worker
	if result := h.db.Where("user_id = ?", userID).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Worker profile already exists"})
		return
	}

	worker := models.Worker{
		UserID:         userID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		Phone:          req.Phone,
		Address:        req.Address,
		Skills:         req.Skills,
		PreferredRoles: req.PreferredRoles,
		LocationRadius: req.LocationRadius,
		IsActive:       true,
	}
	if worker.LocationRadius == 0 {
		worker.LocationRadius = 10
	}

	if err := h.db.Create(&worker).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create worker profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"worker": worker})
}

// GetMyProfile returns the authenticated worker's profile
func (h *WorkerHandler) GetMyProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var worker models.Worker
	err := h.db.Preload("Certifications").Preload("Availability").
		Where("user_id = ?", userID).First(&worker).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

// GetWorker returns a worker profile by id
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker ID"})
		return
	}

	var worker models.Worker
	err = h.db.Preload("Certifications").Preload("Availability").
		First(&worker, "id = ?", id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

// ListWorkers returns active worker profiles, optionally filtered by skill
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	query := h.db.Model(&models.Worker{}).Where("is_active = ?", true)
	if skill := c.Query("skill"); skill != "" {
		query = query.Where("skills::text LIKE ?", "%"+skill+"%")
	}

	var workers []models.Worker
	if err := query.Order("rating_average DESC").Find(&workers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch workers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"workers": workers, "count": len(workers)})
}

// UpdateProfile updates the authenticated worker's profile
func (h *WorkerHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var worker models.Worker
	if err := h.db.Where("user_id = ?", userID).First(&worker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker profile not found"})
		return
	}

	var req CreateWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"first_name":      req.FirstName,
		"last_name":       req.LastName,
		"gender":          req.Gender,
		"phone":           req.Phone,
		"skills":          req.Skills,
		"preferred_roles": req.PreferredRoles,
	}
	if req.DateOfBirth != nil {
		updates["date_of_birth"] = req.DateOfBirth
	}
	if req.LocationRadius > 0 {
		updates["location_radius"] = req.LocationRadius
	}

	if err := h.db.Model(&worker).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update worker profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"worker": worker})
}

// AvailabilityRequest is one weekly availability window
type AvailabilityRequest struct {
	DayOfWeek string `json:"day_of_week" binding:"required"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`
}

// SetAvailability replaces the worker's weekly availability
func (h *WorkerHandler) SetAvailability(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var worker models.Worker
	if err := h.db.Where("user_id = ?", userID).First(&worker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker profile not found"})
		return
	}

	var req []AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worker_id = ?", worker.ID).Delete(&models.WorkerAvailability{}).Error; err != nil {
			return err
		}
		for _, window := range req {
			availability := models.WorkerAvailability{
				WorkerID:  worker.ID,
				DayOfWeek: window.DayOfWeek,
				Start:     window.Start,
				End:       window.End,
				Available: window.Available,
			}
			if err := tx.Create(&availability).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update availability"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Availability updated"})
}

// CertificationRequest represents the request body for adding a certification
type CertificationRequest struct {
	Name          string     `json:"name" binding:"required"`
	Issuer        string     `json:"issuer"`
	IssueDate     *time.Time `json:"issue_date"`
	ExpiryDate    *time.Time `json:"expiry_date"`
	CredentialID  string     `json:"credential_id"`
	CredentialURL string     `json:"credential_url"`
}

// AddCertification attaches a certification to the worker's profile
func (h *WorkerHandler) AddCertification(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var worker models.Worker
	if err := h.db.Where("user_id = ?", userID).First(&worker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker profile not found"})
		return
	}

	var req CertificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cert := models.Certification{
		WorkerID:      &worker.ID,
		Name:          req.Name,
		Issuer:        req.Issuer,
		IssueDate:     req.IssueDate,
		ExpiryDate:    req.ExpiryDate,
		CredentialID:  req.CredentialID,
		CredentialURL: req.CredentialURL,
	}
	if err := h.db.Create(&cert).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add certification"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"certification": cert})
}
