package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shiftlink/backend/internal/services/subscription"
)

// WebhookHandler receives billing provider webhooks
type WebhookHandler struct {
	subscriptions *subscription.Service
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(subscriptions *subscription.Service) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions}
}

// HandleStripeWebhook verifies and applies a Stripe event. A failed signature
// or unparseable payload is rejected with 400; an internal failure before the
// event is applied answers 500. Stripe retries on either status; anything past
// that is acknowledged with 200.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.subscriptions.HandleWebhook(payload, signature); err != nil {
		if errors.Is(err, subscription.ErrInvalidWebhook) {
			log.Printf("webhook: rejected: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Webhook verification failed"})
			return
		}
		log.Printf("webhook: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
