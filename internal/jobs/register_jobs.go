package jobs

import (
	"log"

	"gorm.io/gorm"

	"github.com/shiftlink/backend/internal/queue"
	"github.com/shiftlink/backend/internal/services/notification"
)

// RegisterJobs wires every job handler into the queue and schedules the
// recurring sweeps on the worker
func RegisterJobs(worker *queue.Worker, q *queue.Queue, db *gorm.DB, notifications *notification.Service) {
	expiryJob := NewSubscriptionExpiryJob(db, notifications)
	q.RegisterHandler(queue.JobTypeSubscriptionExpiryCheck, expiryJob.Handle)

	notificationJob := NewNotificationJob(notifications)
	q.RegisterHandler(queue.JobTypeSendPushNotification, notificationJob.Handle)

	if err := worker.ScheduleDaily("03:00", queue.JobTypeSubscriptionExpiryCheck); err != nil {
		log.Printf("jobs: failed to schedule subscription expiry sweep: %v", err)
	}

	log.Println("jobs: registered job handlers")
}
