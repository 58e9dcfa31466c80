package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/models"
)

// ErrNotFound is returned when a notification does not exist or belongs to
// another user
var ErrNotFound = errors.New("notification not found")

// Service creates in-app notifications and mirrors them to registered devices
type Service struct {
	db   *gorm.DB
	push PushSender // nil when push delivery is not configured
}

// NewService creates a notification service. push may be nil to disable
// device delivery.
func NewService(db *gorm.DB, push PushSender) *Service {
	return &Service{db: db, push: push}
}

// CreateInput describes a notification to deliver
type CreateInput struct {
	RecipientID   uuid.UUID                   `json:"recipient_id" binding:"required"`
	SenderID      *uuid.UUID                  `json:"sender_id,omitempty"`
	Title         string                      `json:"title" binding:"required"`
	Message       string                      `json:"message" binding:"required"`
	Type          models.NotificationType     `json:"type" binding:"required"`
	RelatedEntity string                      `json:"related_entity,omitempty"`
	EntityID      *uuid.UUID                  `json:"entity_id,omitempty"`
	Priority      models.NotificationPriority `json:"priority,omitempty"`
}

// Create stores the notification and pushes it to the recipient's devices.
// Push failures are logged, never surfaced: device delivery is best effort.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Notification, error) {
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}

	notification := models.Notification{
		RecipientID:   input.RecipientID,
		SenderID:      input.SenderID,
		Title:         input.Title,
		Message:       input.Message,
		Type:          input.Type,
		RelatedEntity: input.RelatedEntity,
		EntityID:      input.EntityID,
		Priority:      input.Priority,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("error creating notification: %w", err)
	}

	s.pushToDevices(ctx, &notification)

	return &notification, nil
}

// pushToDevices mirrors a stored notification to every registered device token
func (s *Service) pushToDevices(ctx context.Context, n *models.Notification) {
	if s.push == nil {
		return
	}

	var tokens []models.DeviceToken
	if err := s.db.Where("user_id = ?", n.RecipientID).Find(&tokens).Error; err != nil {
		log.Printf("push: failed to load device tokens for %s: %v", n.RecipientID, err)
		return
	}

	data := map[string]string{
		"type":     string(n.Type),
		"priority": string(n.Priority),
	}
	if n.EntityID != nil {
		data["entity_id"] = n.EntityID.String()
		data["related_entity"] = n.RelatedEntity
	}

	for _, t := range tokens {
		if err := s.push.Send(ctx, t.Token, n.Title, n.Message, data); err != nil {
			log.Printf("push: delivery to token %s... failed: %v", truncateToken(t.Token), err)
		}
	}
}

func truncateToken(token string) string {
	if len(token) > 12 {
		return token[:12]
	}
	return token
}

// BroadcastInput describes a notification sent to every active user,
// optionally narrowed to one role
type BroadcastInput struct {
	Role     models.UserRole             `json:"role,omitempty"`
	Title    string                      `json:"title" binding:"required"`
	Message  string                      `json:"message" binding:"required"`
	Type     models.NotificationType     `json:"type"`
	Priority models.NotificationPriority `json:"priority,omitempty"`
}

// Broadcast delivers one notification to every matching user and returns the
// number of recipients. Individual delivery failures are logged and skipped.
func (s *Service) Broadcast(ctx context.Context, input BroadcastInput) (int, error) {
	if input.Type == "" {
		input.Type = models.NotifyGeneral
	}

	query := s.db.Model(&models.User{}).Where("is_active = ?", true)
	if input.Role != "" {
		query = query.Where("role = ?", input.Role)
	}

	var userIDs []uuid.UUID
	if err := query.Pluck("id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("error loading broadcast recipients: %w", err)
	}

	delivered := 0
	for _, id := range userIDs {
		_, err := s.Create(ctx, CreateInput{
			RecipientID: id,
			Title:       input.Title,
			Message:     input.Message,
			Type:        input.Type,
			Priority:    input.Priority,
		})
		if err != nil {
			log.Printf("broadcast: failed for recipient %s: %v", id, err)
			continue
		}
		delivered++
	}
	return delivered, nil
}

// ListForUser returns the user's notifications, newest first
func (s *Service) ListForUser(userID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.Where("recipient_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for the user
func (s *Service) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one notification as read for its recipient
func (s *Service) MarkRead(id, userID uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ? AND recipient_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkAllRead marks every unread notification for the user as read
func (s *Service) MarkAllRead(userID uuid.UUID) (int64, error) {
	result := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

// Delete removes one notification for its recipient
func (s *Service) Delete(id, userID uuid.UUID) error {
	result := s.db.Delete(&models.Notification{}, "id = ? AND recipient_id = ?", id, userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RegisterDevice stores a device push token for the user, replacing any
// previous registration of the same token
func (s *Service) RegisterDevice(userID uuid.UUID, token, platform string) (*models.DeviceToken, error) {
	var existing models.DeviceToken
	err := s.db.Where("token = ?", token).First(&existing).Error
	switch {
	case err == nil:
		if err := s.db.Model(&existing).Updates(map[string]interface{}{"user_id": userID, "platform": platform}).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		device := models.DeviceToken{UserID: userID, Token: token, Platform: platform}
		if err := s.db.Create(&device).Error; err != nil {
			return nil, err
		}
		return &device, nil
	default:
		return nil, err
	}
}

// NotifyShiftRequest tells the company a worker asked to join a shift
func (s *Service) NotifyShiftRequest(ctx context.Context, companyUserID, shiftID uuid.UUID, workerName, shiftTitle string) {
	s.fireAndLog(ctx, CreateInput{
		RecipientID:   companyUserID,
		Title:         "New shift request",
		Message:       fmt.Sprintf("%s requested to work %q", workerName, shiftTitle),
		Type:          models.NotifyShiftRequest,
		RelatedEntity: "shift",
		EntityID:      &shiftID,
	})
}

// NotifyShiftDecision tells a worker their shift request was approved or rejected
func (s *Service) NotifyShiftDecision(ctx context.Context, workerUserID, shiftID uuid.UUID, shiftTitle string, approved bool) {
	input := CreateInput{
		RecipientID:   workerUserID,
		RelatedEntity: "shift",
		EntityID:      &shiftID,
	}
	if approved {
		input.Title = "Shift request approved"
		input.Message = fmt.Sprintf("You are scheduled for %q", shiftTitle)
		input.Type = models.NotifyShiftApproval
		input.Priority = models.PriorityHigh
	} else {
		input.Title = "Shift request declined"
		input.Message = fmt.Sprintf("Your request for %q was declined", shiftTitle)
		input.Type = models.NotifyShiftRejection
	}
	s.fireAndLog(ctx, input)
}

// NotifySubscriptionExpiry warns a user their subscription is about to lapse
func (s *Service) NotifySubscriptionExpiry(ctx context.Context, userID, subscriptionID uuid.UUID, daysLeft int) {
	s.fireAndLog(ctx, CreateInput{
		RecipientID:   userID,
		Title:         "Subscription expiring",
		Message:       fmt.Sprintf("Your subscription expires in %d days. Renew to keep your access.", daysLeft),
		Type:          models.NotifySubscriptionExpiry,
		RelatedEntity: "subscription",
		EntityID:      &subscriptionID,
		Priority:      models.PriorityHigh,
	})
}

// NotifyPaymentSuccess confirms a successful payment to the subscriber
func (s *Service) NotifyPaymentSuccess(ctx context.Context, userID, subscriptionID uuid.UUID, amount float64, currency string) {
	s.fireAndLog(ctx, CreateInput{
		RecipientID:   userID,
		Title:         "Payment received",
		Message:       fmt.Sprintf("Your payment of %.2f %s was processed.", amount, currency),
		Type:          models.NotifyPaymentSuccess,
		RelatedEntity: "subscription",
		EntityID:      &subscriptionID,
	})
}

func (s *Service) fireAndLog(ctx context.Context, input CreateInput) {
	if _, err := s.Create(ctx, input); err != nil {
		log.Printf("notification: failed to create %s notification for %s: %v", input.Type, input.RecipientID, err)
	}
}
