package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/services/notification"
)

// ShiftHandler handles shift scheduling requests
type ShiftHandler struct {
	db            *gorm.DB
	notifications *notification.Service
}

// NewShiftHandler creates a new shift handler
func NewShiftHandler(db *gorm.DB, notifications *notification.Service) *ShiftHandler {
	return &ShiftHandler{db: db, notifications: notifications}
}

// CreateShiftRequest represents the request body for posting a shift
type CreateShiftRequest struct {
	JobRoleID       uuid.UUID `json:"job_role_id" binding:"required"`
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required"`
	StartTime       string    `json:"start_time" binding:"required"`
	EndTime         string    `json:"end_time" binding:"required"`
	RequiredWorkers int       `json:"required_workers" binding:"required,min=1"`
	Location        string    `json:"location" binding:"required"`
	PayRate         float64   `json:"pay_rate"`
}

func (h *ShiftHandler) companyForUser(c *gin.Context) (*models.Company, bool) {
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

func (h *ShiftHandler) workerForUser(c *gin.Context) (*models.Worker, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	var worker models.Worker
	if err := h.db.Where("user_id = ?", userID).First(&worker).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Worker profile not found"})
		return nil, false
	}
	return &worker, true
}

// CreateShift posts a new shift for the authenticated company
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	var req CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.EndDate.Before(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "End date must not be before start date"})
		return
	}

	var role models.JobRole
	if err := h.db.First(&role, "id = ? AND company_id = ?", req.JobRoleID, company.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job role not found"})
		return
	}

	shift := models.Shift{
		CompanyID:       company.ID,
		JobRoleID:       role.ID,
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		RequiredWorkers: req.RequiredWorkers,
		Location:        req.Location,
		PayRate:         req.PayRate,
		Status:          models.ShiftOpen,
		IsActive:        true,
	}
	if shift.PayRate == 0 {
		shift.PayRate = role.HourlyRateMin
	}

	if err := h.db.Create(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shift"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"shift": shift})
}

// GetShift returns one shift with its requests and assignments
func (h *ShiftHandler) GetShift(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID"})
		return
	}

	var shift models.Shift
	err = h.db.Preload("Requests").Preload("AssignedWorkers").First(&shift, "id = ?", id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shift": shift})
}

// ListShifts returns shifts filtered by status, company or date range
func (h *ShiftHandler) ListShifts(c *gin.Context) {
	query := h.db.Model(&models.Shift{}).Where("is_active = ?", true)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if companyID := c.Query("company_id"); companyID != "" {
		query = query.Where("company_id = ?", companyID)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			query = query.Where("start_date >= ?", t)
		}
	}

	var shifts []models.Shift
	if err := query.Order("start_date").Find(&shifts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shifts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shifts": shifts, "count": len(shifts)})
}

// UpdateShift updates a shift owned by the authenticated company
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID"})
		return
	}

	var shift models.Shift
	if err := h.db.First(&shift, "id = ? AND company_id = ?", id, company.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	if shift.Status == models.ShiftCompleted || shift.Status == models.ShiftCancelled {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift can no longer be modified"})
		return
	}

	var req struct {
		Title           string  `json:"title"`
		Description     string  `json:"description"`
		StartTime       string  `json:"start_time"`
		EndTime         string  `json:"end_time"`
		RequiredWorkers int     `json:"required_workers"`
		Location        string  `json:"location"`
		PayRate         float64 `json:"pay_rate"`
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
	if req.StartTime != "" {
		updates["start_time"] = req.StartTime
	}
	if req.EndTime != "" {
		updates["end_time"] = req.EndTime
	}
	if req.RequiredWorkers > 0 {
		updates["required_workers"] = req.RequiredWorkers
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.PayRate > 0 {
		updates["pay_rate"] = req.PayRate
	}

	if err := h.db.Model(&shift).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update shift"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shift": shift})
}

// CancelShift cancels a shift owned by the authenticated company
func (h *ShiftHandler) CancelShift(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID"})
		return
	}

	result := h.db.Model(&models.Shift{}).
		Where("id = ? AND company_id = ? AND status NOT IN ?", id, company.ID,
			[]models.ShiftStatus{models.ShiftCompleted, models.ShiftCancelled}).
		Update("status", models.ShiftCancelled)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel shift"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found or already closed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shift cancelled"})
}

// RequestShift lets the authenticated worker apply to work a shift
func (h *ShiftHandler) RequestShift(c *gin.Context) {
	worker, ok := h.workerForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID"})
		return
	}

	var shift models.Shift
	err = h.db.Preload("AssignedWorkers").Preload("Company").First(&shift, "id = ?", id).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	if shift.Status != models.ShiftOpen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift is not open for requests"})
		return
	}
	if shift.IsFull() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift is fully staffed"})
		return
	}

	var existing models.ShiftRequest
	if result := h.db.Where("shift_id = ? AND worker_id = ? AND status IN ?", shift.ID, worker.ID,
		[]models.ShiftRequestStatus{models.RequestPending, models.RequestApproved}).
		First(&existing); result.RowsAffected > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "You have already requested this shift"})
		return
	}

	request := models.ShiftRequest{
		ShiftID:     shift.ID,
		WorkerID:    worker.ID,
		Status:      models.RequestPending,
		RequestedAt: time.Now(),
	}
	if err := h.db.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shift request"})
		return
	}

	workerName := worker.FirstName + " " + worker.LastName
	h.notifications.NotifyShiftRequest(c.Request.Context(), shift.Company.UserID, shift.ID, workerName, shift.Title)

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// DecideRequestBody carries the approval decision for a shift request
type DecideRequestBody struct {
	Approve bool `json:"approve"`
}

// DecideRequest approves or rejects a worker's shift request. Approval also
// creates the assignment and may mark the shift filled.
func (h *ShiftHandler) DecideRequest(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	requestID, err := uuid.Parse(c.Param("requestId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	var body DecideRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var request models.ShiftRequest
	if err := h.db.Preload("Worker").First(&request, "id = ?", requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift request not found"})
		return
	}
	if request.Status != models.RequestPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Request has already been decided"})
		return
	}

	var shift models.Shift
	err = h.db.Preload("AssignedWorkers").First(&shift, "id = ? AND company_id = ?", request.ShiftID, company.ID).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}

	if !body.Approve {
		if err := h.db.Model(&request).Update("status", models.RequestRejected).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update request"})
			return
		}
		h.notifications.NotifyShiftDecision(c.Request.Context(), request.Worker.UserID, shift.ID, shift.Title, false)
		c.JSON(http.StatusOK, gin.H{"request": request})
		return
	}

	if shift.IsFull() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift is fully staffed"})
		return
	}

	now := time.Now()
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&request).Updates(map[string]interface{}{
			"status":      models.RequestApproved,
			"approved_by": company.UserID,
			"approved_at": now,
		}).Error; err != nil {
			return err
		}

		assignment := models.ShiftAssignment{
			ShiftID:    shift.ID,
			WorkerID:   request.WorkerID,
			AssignedAt: now,
			Status:     models.AssignmentConfirmed,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}

		if len(shift.AssignedWorkers)+1 >= shift.RequiredWorkers {
			if err := tx.Model(&shift).Update("status", models.ShiftFilled).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve request"})
		return
	}

	h.notifications.NotifyShiftDecision(c.Request.Context(), request.Worker.UserID, shift.ID, shift.Title, true)

	c.JSON(http.StatusOK, gin.H{"request": request})
}

// CompleteShift marks a shift and its confirmed assignments completed
func (h *ShiftHandler) CompleteShift(c *gin.Context) {
	company, ok := h.companyForUser(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid shift ID"})
		return
	}

	var shift models.Shift
	if err := h.db.First(&shift, "id = ? AND company_id = ?", id, company.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Shift not found"})
		return
	}
	if shift.Status == models.ShiftCancelled || shift.Status == models.ShiftCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shift is already closed"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&shift).Update("status", models.ShiftCompleted).Error; err != nil {
			return err
		}
		return tx.Model(&models.ShiftAssignment{}).
			Where("shift_id = ? AND status = ?", shift.ID, models.AssignmentConfirmed).
			Update("status", models.AssignmentCompleted).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete shift"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shift": shift})
}

// MyShifts returns the authenticated worker's assignments
func (h *ShiftHandler) MyShifts(c *gin.Context) {
	worker, ok := h.workerForUser(c)
	if !ok {
		return
	}

	var assignments []models.ShiftAssignment
	err := h.db.Where("worker_id = ?", worker.ID).Order("assigned_at DESC").Find(&assignments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assignments": assignments, "count": len(assignments)})
}
