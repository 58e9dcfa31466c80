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

// CompanyHandler handles company profile requests
type CompanyHandler struct {
	db *gorm.DB
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(db *gorm.DB) *CompanyHandler {
	return &CompanyHandler{db: db}
}

// CreateCompanyRequest represents the request body for creating a company profile
type CreateCompanyRequest struct {
	Name         string         `json:"name" binding:"required"`
	Description  string         `json:"description" binding:"required"`
	Website      string         `json:"website"`
	Phone        string         `json:"phone"`
	ContactEmail string         `json:"contact_email"`
	Address      models.Address `json:"address"`
	Industry     string         `json:"industry" binding:"required"`
	Logo         string         `json:"logo"`
}

// CreateProfile creates the company profile for the authenticated user
func (h *CompanyHandler) CreateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidIndustry(req.Industry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid industry"})
		return
	}

	var existing models.Company
	if result := h.db.Where("user_id = ? OR name = ?", userID, req.Name).First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Company profile already exists"})
		return
	}

	company := models.Company{
		UserID:             userID,
		Name:               req.Name,
		Slug:               slug.Make(req.Name),
		Description:        req.Description,
		Website:            req.Website,
		Phone:              req.Phone,
		ContactEmail:       req.ContactEmail,
		Address:            req.Address,
		Industry:           req.Industry,
		Logo:               req.Logo,
		VerificationStatus: models.VerificationPending,
		SubscriptionTier:   models.PlanFree,
		IsActive:           true,
	}
	if err := h.db.Create(&company).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create company profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"company": company})
}

// GetMyProfile returns the authenticated company's profile
func (h *CompanyHandler) GetMyProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var company models.Company
	if err := h.db.Where("user_id = ?", userID).First(&company).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// GetCompany returns a company by id or slug
func (h *CompanyHandler) GetCompany(c *gin.Context) {
	param := c.Param("id")

	var company models.Company
	if id, err := uuid.Parse(param); err == nil {
		err = h.db.First(&company, "id = ?", id).Error
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
			return
		}
	} else if err := h.db.Where("slug = ?", param).First(&company).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// ListCompanies returns active companies, optionally filtered by industry
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	query := h.db.Model(&models.Company{}).Where("is_active = ?", true)
	if industry := c.Query("industry"); industry != "" {
		query = query.Where("industry = ?", industry)
	}
	if status := c.Query("verification_status"); status != "" {
		query = query.Where("verification_status = ?", status)
	}

	var companies []models.Company
	if err := query.Order("name").Find(&companies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch companies"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": companies, "count": len(companies)})
}

// UpdateProfile updates the authenticated company's profile
func (h *CompanyHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var company models.Company
	if err := h.db.Where("user_id = ?", userID).First(&company).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company profile not found"})
		return
	}

	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidIndustry(req.Industry) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid industry"})
		return
	}

	updates := map[string]interface{}{
		"description":   req.Description,
		"website":       req.Website,
		"phone":         req.Phone,
		"contact_email": req.ContactEmail,
		"industry":      req.Industry,
		"logo":          req.Logo,
	}
	// Renaming regenerates the slug
	if req.Name != "" && req.Name != company.Name {
		updates["name"] = req.Name
		updates["slug"] = slug.Make(req.Name)
	}

	if err := h.db.Model(&company).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update company profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}

// VerifyCompanyRequest sets a company's verification outcome
type VerifyCompanyRequest struct {
	Status models.VerificationStatus `json:"status" binding:"required"`
}

// VerifyCompany records the admin's verification decision
func (h *CompanyHandler) VerifyCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid company ID"})
		return
	}

	var req VerifyCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != models.VerificationVerified && req.Status != models.VerificationRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be verified or rejected"})
		return
	}

	var company models.Company
	if err := h.db.First(&company, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		return
	}

	if err := h.db.Model(&company).Update("verification_status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update verification status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"company": company})
}
