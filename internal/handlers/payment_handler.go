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

// PaymentHandler handles payment records nested under a subscription
type PaymentHandler struct {
	db *gorm.DB
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

// loadSubscription loads the parent subscription and enforces ownership
func (h *PaymentHandler) loadSubscription(c *gin.Context) (*models.Subscription, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return nil, false
	}

	subID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return nil, false
	}

	var sub models.Subscription
	if err := h.db.First(&sub, "id = ?", subID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		return nil, false
	}

	if middleware.CurrentRole(c) != models.RoleAdmin && sub.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized for this subscription"})
		return nil, false
	}
	return &sub, true
}

// RecordPaymentRequest represents the request body for manually recording a payment
type RecordPaymentRequest struct {
	Amount        float64              `json:"amount" binding:"required"`
	Currency      string               `json:"currency"`
	Method        models.PaymentMethod `json:"method" binding:"required"`
	TransactionID string               `json:"transaction_id" binding:"required"`
	ReceiptURL    string               `json:"receipt_url"`
	PeriodStart   *time.Time           `json:"period_start"`
	PeriodEnd     *time.Time           `json:"period_end"`
	Metadata      models.JSON          `json:"metadata"`
}

// RecordPayment records an out-of-band payment against a subscription.
// Stripe payments arrive through webhooks instead.
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	periodStart := sub.StartDate
	if req.PeriodStart != nil {
		periodStart = *req.PeriodStart
	}
	periodEnd := models.NextPeriodEnd(sub.BillingCycle, periodStart)
	if req.PeriodEnd != nil {
		periodEnd = *req.PeriodEnd
	}
	currency := req.Currency
	if currency == "" {
		currency = sub.Currency
	}

	payment := models.Payment{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Amount:         req.Amount,
		Currency:       currency,
		Method:         req.Method,
		Status:         models.PaymentCompleted,
		TransactionID:  req.TransactionID,
		ReceiptURL:     req.ReceiptURL,
		BillingCycle:   sub.BillingCycle,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		Metadata:       req.Metadata,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}
		return tx.Model(sub).Updates(map[string]interface{}{
			"payment_status": models.PaymentStatePaid,
			"status":         models.SubscriptionActive,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// ListPayments returns the payments recorded against a subscription
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}

	var payments []models.Payment
	err := h.db.Where("subscription_id = ?", sub.ID).Order("created_at DESC").Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

// GetPayment returns one payment under a subscription
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
		return
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ? AND subscription_id = ?", id, sub.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// RefundPayment marks a payment refunded (admin)
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	sub, ok := h.loadSubscription(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("paymentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment ID"})
		return
	}

	var payment models.Payment
	if err := h.db.First(&payment, "id = ? AND subscription_id = ?", id, sub.ID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}
	if payment.Status != models.PaymentCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only completed payments can be refunded"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&payment).Update("status", models.PaymentRefunded).Error; err != nil {
			return err
		}
		return tx.Model(sub).Update("payment_status", models.PaymentStateRefunded).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refund payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}
