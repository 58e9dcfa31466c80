package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
)

// TrainingProgramHandler handles training program requests
type TrainingProgramHandler struct {
	db *gorm.DB
}

// NewTrainingProgramHandler creates a new training program handler
func NewTrainingProgramHandler(db *gorm.DB) *TrainingProgramHandler {
	return &TrainingProgramHandler{db: db}
}

// TrainingModuleRequest is one unit of content in a program request
type TrainingModuleRequest struct {
	Title       string                     `json:"title" binding:"required"`
	Description string                     `json:"description" binding:"required"`
	ContentType models.TrainingContentType `json:"content_type" binding:"required"`
	ContentURL  string                     `json:"content_url"`
	Duration    int                        `json:"duration"`
	Order       int                        `json:"order"`
}

// CreateProgramRequest represents the request body for creating a training program
type CreateProgramRequest struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description" binding:"required"`
	Category    string                  `json:"category" binding:"required"`
	Modules     []TrainingModuleRequest `json:"modules"`
}

// trainerForUser loads the trainer profile owned by the authenticated user
func (h *TrainingProgramHandler) trainerForUser(c *gin.Context) (*models.Trainer, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	var trainer models.Trainer
	if err := h.db.Where("user_id = ?", userID).First(&trainer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trainer profile not found"})
		return nil, false
	}
	return &trainer, true
}

// CreateProgram creates a training program for the authenticated trainer
func (h *TrainingProgramHandler) CreateProgram(c *gin.Context) {
	trainer, ok := h.trainerForUser(c)
	if !ok {
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	program := models.TrainingProgram{
		CompanyID:   trainer.CompanyID,
		TrainerID:   trainer.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    true,
	}

	totalDuration := 0
	for i, m := range req.Modules {
		order := m.Order
		if order == 0 {
			order = i + 1
		}
		program.Modules = append(program.Modules, models.TrainingModule{
			Title:       m.Title,
			Description: m.Description,
			ContentType: m.ContentType,
			ContentURL:  m.ContentURL,
			Duration:    m.Duration,
			SortOrder:   order,
		})
		totalDuration += m.Duration
	}
	program.Duration = totalDuration

	if err := h.db.Create(&program).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create training program"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"program": program})
}

// GetProgram returns one training program with its modules
func (h *TrainingProgramHandler) GetProgram(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid program ID"})
		return
	}

	var program models.TrainingProgram
	err = h.db.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order")
	}).First(&program, "id = ?", id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Training program not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"program": program})
}

// ListPrograms returns active programs, optionally filtered
func (h *TrainingProgramHandler) ListPrograms(c *gin.Context) {
	query := h.db.Model(&models.TrainingProgram{}).Where("is_active = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}

	var programs []models.TrainingProgram
	if err := query.Order("created_at DESC").Find(&programs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch training programs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"programs": programs, "count": len(programs)})
}

// UpdateProgram updates a program owned by the authenticated trainer
func (h *TrainingProgramHandler) UpdateProgram(c *gin.Context) {
	trainer, ok := h.trainerForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid program ID"})
		return
	}

	var program models.TrainingProgram
	if err := h.db.First(&program, "id = ? AND trainer_id = ?", id, trainer.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Training program not found"})
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Category    string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}

	if err := h.db.Model(&program).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update training program"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"program": program})
}

// DeleteProgram deactivates a program owned by the authenticated trainer
func (h *TrainingProgramHandler) DeleteProgram(c *gin.Context) {
	trainer, ok := h.trainerForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid program ID"})
		return
	}

	result := h.db.Model(&models.TrainingProgram{}).
		Where("id = ? AND trainer_id = ?", id, trainer.ID).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete training program"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Training program not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Training program deactivated"})
}
