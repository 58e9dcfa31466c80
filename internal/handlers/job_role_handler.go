package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
)

// JobRoleHandler handles job role requests
type JobRoleHandler struct {
	db *gorm.DB
}

// NewJobRoleHandler creates a new job role handler
func NewJobRoleHandler(db *gorm.DB) *JobRoleHandler {
	return &JobRoleHandler{db: db}
}

// companyForUser loads the company profile owned by the authenticated user
func (h *JobRoleHandler) companyForUser(c *gin.Context) (*models.Company, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	var company models.Company
	if err := h.db.Where("user_id = ?", userID).First(&company).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company profile not found"})
		return nil, false
	}
	return &company, true
}

// JobRoleRequest represents the request body for creating or updating a job role
type JobRoleRequest struct {
	Title            string                `json:"title" binding:"required"`
	Description      string                `json:"description" binding:"required"`
	Requirements     models.StringSlice    `json:"requirements"`
	Responsibilities models.StringSlice    `json:"responsibilities"`
	SkillsRequired   models.StringSlice    `json:"skills_required"`
	HourlyRateMin    float64               `json:"hourly_rate_min"`
	HourlyRateMax    float64               `json:"hourly_rate_max"`
	Location         string                `json:"location" binding:"required"`
	EmploymentType   models.EmploymentType `json:"employment_type"`
}

// CreateJobRole creates a job role for the authenticated company
func (h *JobRoleHandler) CreateJobRole(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	var req JobRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.HourlyRateMax > 0 && req.HourlyRateMax < req.HourlyRateMin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum rate must be at least the minimum rate"})
		return
	}

	role := models.JobRole{
		CompanyID:        company.ID,
		Title:            req.Title,
		Slug:             slug.Make(req.Title),
		Description:      req.Description,
		Requirements:     req.Requirements,
		Responsibilities: req.Responsibilities,
		SkillsRequired:   req.SkillsRequired,
		HourlyRateMin:    req.HourlyRateMin,
		HourlyRateMax:    req.HourlyRateMax,
		Location:         req.Location,
		EmploymentType:   req.EmploymentType,
		IsActive:         true,
	}
	if role.EmploymentType == "" {
		role.EmploymentType = models.EmploymentTemporary
	}

	if err := h.db.Create(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job role"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"job_role": role})
}

// GetJobRole returns one job role by id
func (h *JobRoleHandler) GetJobRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job role ID"})
		return
	}

	var role models.JobRole
	if err := h.db.First(&role, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job role not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_role": role})
}

// ListJobRoles returns active job roles, optionally filtered by company or type
func (h *JobRoleHandler) ListJobRoles(c *gin.Context) {
	query := h.db.Model(&models.JobRole{}).Where("is_active = ?", true)
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if employmentType := c.Query("employment_type"); employmentType != "" {
		query = query.Where("employment_type = ?", employmentType)
	}

	var roles []models.JobRole
	if err := query.Order("created_at DESC").Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job roles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_roles": roles, "count": len(roles)})
}

// UpdateJobRole updates a job role owned by the authenticated company
func (h *JobRoleHandler) UpdateJobRole(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job role ID"})
		return
	}

	var role models.JobRole
	if err := h.db.First(&role, "id = ? AND company_id = ?", id, company.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job role not found"})
		return
	}

	var req JobRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"description":      req.Description,
		"requirements":     req.Requirements,
		"responsibilities": req.Responsibilities,
		"skills_required":  req.SkillsRequired,
		"hourly_rate_min":  req.HourlyRateMin,
		"hourly_rate_max":  req.HourlyRateMax,
		"location":         req.Location,
	}
	if req.Title != "" && req.Title != role.Title {
		updates["title"] = req.Title
		updates["slug"] = slug.Make(req.Title)
	}
	if req.EmploymentType != "" {
		updates["employment_type"] = req.EmploymentType
	}

	if err := h.db.Model(&role).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_role": role})
}

// DeleteJobRole deactivates a job role owned by the authenticated company
func (h *JobRoleHandler) DeleteJobRole(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job role ID"})
		return
	}

	result := h.db.Model(&models.JobRole{}).
		Where("id = ? AND company_id = ?", id, company.ID).
		Update("is_active", false)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job role"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job role not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job role deactivated"})
}
