package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeSendPushNotification    JobType = "send_push_notification"
	JobTypeSubscriptionExpiryCheck JobType = "subscription_expiry_check"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type" gorm:"type:varchar(50);index"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status" gorm:"type:varchar(20);index"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) error

// Queue is a database-backed job queue
type Queue struct {
	db         *gorm.DB
	handlers   map[JobType]JobHandler
	processing bool
	quit       chan struct{}
}

// NewQueue creates a new queue
func NewQueue(db *gorm.DB) *Queue {
	return &Queue{
		db:       db,
		handlers: make(map[JobType]JobHandler),
		quit:     make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// Enqueue adds a job to the queue. The payload is JSON-marshaled.
func (q *Queue) Enqueue(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", err
	}
	return job.ID.String(), nil
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(jobID string) (*Job, error) {
	var job Job
	if err := q.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found")
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ProcessJobs polls for pending jobs until Stop is called
func (q *Queue) ProcessJobs() {
	if q.processing {
		return
	}
	q.processing = true

	for {
		select {
		case <-q.quit:
			return
		default:
		}

		var job Job
		now := time.Now()
		err := q.db.
			Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)", JobStatusPending, now).
			Order("created_at").
			First(&job).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("queue: error fetching job: %v", err)
			}
			time.Sleep(1 * time.Second)
			continue
		}

		q.processJob(job)
	}
}

// Stop halts job processing
func (q *Queue) Stop() {
	if q.processing {
		q.processing = false
		close(q.quit)
	}
}

func (q *Queue) processJob(job Job) {
	handler, ok := q.handlers[job.Type]
	if !ok {
		log.Printf("queue: no handler registered for job type %s", job.Type)
		q.db.Model(&job).Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  "no handler registered",
		})
		return
	}

	if err := q.db.Model(&job).Update("status", JobStatusProcessing).Error; err != nil {
		log.Printf("queue: failed to claim job %s: %v", job.ID, err)
		return
	}

	err := handler(context.Background(), job)
	if err != nil {
		q.handleFailure(job, err)
		return
	}

	if err := q.db.Model(&job).Updates(map[string]interface{}{
		"status": JobStatusCompleted,
		"error":  "",
	}).Error; err != nil {
		log.Printf("queue: failed to complete job %s: %v", job.ID, err)
	}
}

// handleFailure reschedules the job with exponential backoff or marks it
// failed once retries are exhausted
func (q *Queue) handleFailure(job Job, jobErr error) {
	retryCount := job.RetryCount + 1
	if retryCount > job.MaxRetries {
		log.Printf("queue: job %s (%s) exceeded max retries: %v", job.ID, job.Type, jobErr)
		q.db.Model(&job).Updates(map[string]interface{}{
			"status":      JobStatusFailed,
			"retry_count": retryCount,
			"error":       jobErr.Error(),
		})
		return
	}

	backoff := 30 * time.Second * time.Duration(1<<(retryCount-1))
	nextRetry := time.Now().Add(backoff)
	log.Printf("queue: job %s (%s) failed, retry %d/%d in %s: %v",
		job.ID, job.Type, retryCount, job.MaxRetries, backoff, jobErr)

	q.db.Model(&job).Updates(map[string]interface{}{
		"status":      JobStatusPending,
		"retry_count": retryCount,
		"next_retry":  nextRetry,
		"error":       jobErr.Error(),
	})
}
