package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shiftlink/backend/internal/models"
)

// recordingPush captures every push instead of delivering it
type recordingPush struct {
	sent []string
	err  error
}

func (r *recordingPush) Send(_ context.Context, token, _, _ string, _ map[string]string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, token)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.DeviceToken{}, &models.Notification{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestCreateStoresAndPushes(t *testing.T) {
	db := setupTestDB(t)
	push := &recordingPush{}
	service := NewService(db, push)

	recipient := uuid.New()
	_, err := service.RegisterDevice(recipient, "device-token-1", "android")
	require.NoError(t, err)

	n, err := service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "Shift reminder",
		Message:     "Your shift starts in one hour",
		Type:        models.NotifyShiftReminder,
	})
	require.NoError(t, err)

	assert.Equal(t, models.PriorityMedium, n.Priority)
	assert.False(t, n.IsRead)
	assert.Equal(t, []string{"device-token-1"}, push.sent)
}

func TestCreateSurvivesPushFailure(t *testing.T) {
	db := setupTestDB(t)
	push := &recordingPush{err: errors.New("fcm unavailable")}
	service := NewService(db, push)

	recipient := uuid.New()
	_, err := service.RegisterDevice(recipient, "device-token-2", "ios")
	require.NoError(t, err)

	_, err = service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "Payment received",
		Message:     "Thanks",
		Type:        models.NotifyPaymentSuccess,
	})
	assert.NoError(t, err, "push failures must not fail notification creation")
}

func TestListUnreadAndMarkRead(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	recipient := uuid.New()
	first, err := service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "One",
		Message:     "first",
		Type:        models.NotifyGeneral,
	})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "Two",
		Message:     "second",
		Type:        models.NotifyGeneral,
	})
	require.NoError(t, err)

	count, err := service.UnreadCount(recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = service.MarkRead(first.ID, recipient)
	require.NoError(t, err)

	unread, err := service.ListForUser(recipient, true)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	all, err := service.ListForUser(recipient, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMarkReadScopedToRecipient(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	recipient := uuid.New()
	n, err := service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "Private",
		Message:     "not yours",
		Type:        models.NotifyGeneral,
	})
	require.NoError(t, err)

	_, err = service.MarkRead(n.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAllRead(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	recipient := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := service.Create(context.Background(), CreateInput{
			RecipientID: recipient,
			Title:       "n",
			Message:     "m",
			Type:        models.NotifyGeneral,
		})
		require.NoError(t, err)
	}

	updated, err := service.MarkAllRead(recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)

	count, err := service.UnreadCount(recipient)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteScopedToRecipient(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	recipient := uuid.New()
	n, err := service.Create(context.Background(), CreateInput{
		RecipientID: recipient,
		Title:       "gone",
		Message:     "soon",
		Type:        models.NotifyGeneral,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, service.Delete(n.ID, uuid.New()), ErrNotFound)
	assert.NoError(t, service.Delete(n.ID, recipient))
	assert.ErrorIs(t, service.Delete(n.ID, recipient), ErrNotFound)
}

func TestRegisterDeviceReassignsToken(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	first := uuid.New()
	second := uuid.New()

	_, err := service.RegisterDevice(first, "shared-token", "web")
	require.NoError(t, err)

	// Same device logs into another account
	device, err := service.RegisterDevice(second, "shared-token", "web")
	require.NoError(t, err)
	assert.Equal(t, second, device.UserID)

	var count int64
	require.NoError(t, db.Model(&models.DeviceToken{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestBroadcastReachesActiveUsersOfRole(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	worker := models.User{Name: "Worker", Email: "worker@example.com", PasswordHash: "x", Role: models.RoleWorker}
	company := models.User{Name: "Company", Email: "company@example.com", PasswordHash: "x", Role: models.RoleCompany}
	inactive := models.User{Name: "Gone", Email: "gone@example.com", PasswordHash: "x", Role: models.RoleWorker}
	require.NoError(t, db.Create(&worker).Error)
	require.NoError(t, db.Create(&company).Error)
	require.NoError(t, db.Create(&inactive).Error)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	delivered, err := service.Broadcast(context.Background(), BroadcastInput{
		Role:    models.RoleWorker,
		Title:   "Scheduled maintenance",
		Message: "The app will be unavailable Sunday 02:00-03:00 UTC",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	notifications, err := service.ListForUser(worker.ID, false)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotifyGeneral, notifications[0].Type)

	notifications, err = service.ListForUser(inactive.ID, false)
	require.NoError(t, err)
	assert.Empty(t, notifications)
}

func TestBroadcastWithoutRoleReachesEveryone(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(db, nil)

	for i := 0; i < 3; i++ {
		user := models.User{Name: "User", Email: fmt.Sprintf("user%d@example.com", i), PasswordHash: "x", Role: models.RoleWorker}
		require.NoError(t, db.Create(&user).Error)
	}

	delivered, err := service.Broadcast(context.Background(), BroadcastInput{
		Title:   "Welcome",
		Message: "Thanks for joining",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, delivered)
}
