package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
)

// TrainerHandler handles trainer profile requests
type TrainerHandler struct {
	db *gorm.DB
}

// NewTrainerHandler creates a new trainer handler
func NewTrainerHandler(db *gorm.DB) *TrainerHandler {
	return &TrainerHandler{db: db}
}

// CreateTrainerRequest represents the request body for creating a trainer profile
type CreateTrainerRequest struct {
	CompanyID         uuid.UUID `json:"company_id" binding:"required"`
	FirstName         string    `json:"first_name" binding:"required"`
	LastName          string    `json:"last_name" binding:"required"`
	Specialization    string    `json:"specialization" binding:"required"`
	YearsOfExperience int       `json:"years_of_experience"`
	Bio               string    `json:"bio"`
}

// CreateProfile creates the trainer profile for the authenticated user
func (h *TrainerHandler) CreateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req CreateTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var company models.Company
	if err := h.db.First(&company, "id = ?", req.CompanyID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	var existing models.Trainer
	if result := h.db.Where("user_id = ?", userID).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Trainer profile already exists"})
		return
	}

	trainer := models.Trainer{
		UserID:            userID,
		CompanyID:         req.CompanyID,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Specialization:    req.Specialization,
		YearsOfExperience: req.YearsOfExperience,
		Bio:               req.Bio,
		IsActive:          true,
	}
	if err := h.db.Create(&trainer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create trainer profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trainer": trainer})
}

// GetMyProfile returns the authenticated trainer's profile
func (h *TrainerHandler) GetMyProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var trainer models.Trainer
	err := h.db.Preload("Certifications").Where("user_id = ?", userID).First(&trainer).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trainer profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainer": trainer})
}

// GetTrainer returns a trainer by id
func (h *TrainerHandler) GetTrainer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid trainer ID"})
		return
	}

	var trainer models.Trainer
	if err := h.db.Preload("Certifications").First(&trainer, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trainer not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainer": trainer})
}

// ListTrainers returns active trainers, optionally scoped to a company
func (h *TrainerHandler) ListTrainers(c *gin.Context) {
	query := h.db.Model(&models.Trainer{}).Where("is_active = ?", true)
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if specialization := c.Query("specialization"); specialization != "" {
		query = query.Where("specialization = ?", specialization)
	}

	var trainers []models.Trainer
	if err := query.Order("created_at DESC").Find(&trainers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trainers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainers": trainers, "count": len(trainers)})
}

// UpdateProfile updates the authenticated trainer's profile
func (h *TrainerHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var trainer models.Trainer
	if err := h.db.Where("user_id = ?", userID).First(&trainer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trainer profile not found"})
		return
	}

	var req struct {
		FirstName         string `json:"first_name"`
		LastName          string `json:"last_name"`
		Specialization    string `json:"specialization"`
		YearsOfExperience int    `json:"years_of_experience"`
		Bio               string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.Specialization != "" {
		updates["specialization"] = req.Specialization
	}
	if req.YearsOfExperience > 0 {
		updates["years_of_experience"] = req.YearsOfExperience
	}
	if req.Bio != "" {
		updates["bio"] = req.Bio
	}

	if err := h.db.Model(&trainer).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update trainer profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trainer": trainer})
}
