package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shiftlink/backend/internal/middleware"
	"github.com/shiftlink/backend/internal/models"
	"github.com/shiftlink/backend/internal/services/subscription"
)

// SubscriptionHandler handles subscription lifecycle requests
type SubscriptionHandler struct {
	service *subscription.Service
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(service *subscription.Service) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// respondServiceError maps the service's sentinel errors to HTTP statuses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, subscription.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrAlreadySubscribed):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, subscription.ErrGateway):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment provider error"})
	case errors.Is(err, models.ErrAmbiguousOwner):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// CreateSubscription starts a new subscription for the authenticated user
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input subscription.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Create(c.Request.Context(), userID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetSubscription returns one subscription for its owner or an admin
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	sub, err := h.service.Get(id, userID, middleware.CurrentRole(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// MySubscriptions returns the authenticated user's subscriptions
func (h *SubscriptionHandler) MySubscriptions(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	subs, err := h.service.ListForUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

// ListSubscriptions returns all subscriptions (admin)
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.service.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "count": len(subs)})
}

// UpdateSubscriptionRequest carries the fields an update may touch
type UpdateSubscriptionRequest struct {
	AutoRenew     *bool                     `json:"auto_renew,omitempty"`
	PaymentMethod models.PaymentMethod      `json:"payment_method,omitempty"`
	Status        models.SubscriptionStatus `json:"status,omitempty"`
	PlanType      models.PlanType           `json:"plan_type,omitempty"`
}

// UpdateSubscription applies field updates. Owners can change billing
// preferences; status and plan changes require admin.
func (h *SubscriptionHandler) UpdateSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := middleware.CurrentRole(c)
	updates := map[string]interface{}{}
	if req.AutoRenew != nil {
		updates["auto_renew"] = *req.AutoRenew
	}
	if req.PaymentMethod != "" {
		updates["payment_method"] = req.PaymentMethod
	}
	if req.Status != "" || req.PlanType != "" {
		if role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Only admins can change status or plan directly"})
			return
		}
		if req.Status != "" {
			updates["status"] = req.Status
		}
		if req.PlanType != "" {
			updates["plan_type"] = req.PlanType
		}
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	sub, err := h.service.Update(id, userID, role, updates)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

// CancelSubscription cancels a subscription
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), id, userID, middleware.CurrentRole(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub, "message": "Subscription cancelled successfully"})
}

// RenewSubscription advances a subscription into its next billing period
func (h *SubscriptionHandler) RenewSubscription(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	sub, err := h.service.Renew(c.Request.Context(), id, userID, middleware.CurrentRole(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub, "message": "Subscription renewed successfully"})
}

// DeleteSubscription hard-removes a subscription (admin)
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subscription ID"})
		return
	}

	if err := h.service.Delete(id, middleware.CurrentRole(c)); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Subscription deleted successfully"})
}

// SubscriptionStats returns the admin dashboard aggregates
func (h *SubscriptionHandler) SubscriptionStats(c *gin.Context) {
	overview, err := h.service.Stats()
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": overview})
}

// PaymentHistory returns the paginated admin billing view
func (h *SubscriptionHandler) PaymentHistory(c *gin.Context) {
	filter := subscription.HistoryFilter{
		Status: models.PaymentState(c.Query("status")),
	}
	if page, err := parsePositiveInt(c.Query("page")); err == nil {
		filter.Page = page
	}
	if limit, err := parsePositiveInt(c.Query("limit")); err == nil {
		filter.Limit = limit
	}
	if start, err := time.Parse("2006-01-02", c.Query("start_date")); err == nil {
		filter.StartDate = &start
	}
	if end, err := time.Parse("2006-01-02", c.Query("end_date")); err == nil {
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	subs, pagination, err := h.service.PaymentHistory(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs, "pagination": pagination})
}
