package queue

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Worker runs the queue processing loop and the recurring job schedule
type Worker struct {
	queue     *Queue
	scheduler *gocron.Scheduler
}

// NewWorker creates a worker for the given queue
func NewWorker(queue *Queue) *Worker {
	return &Worker{
		queue:     queue,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// ScheduleDaily enqueues a job of the given type every day at the given time
// ("HH:MM" in UTC)
func (w *Worker) ScheduleDaily(at string, jobType JobType) error {
	_, err := w.scheduler.Every(1).Day().At(at).Do(func() {
		if _, err := w.queue.Enqueue(jobType, nil); err != nil {
			log.Printf("worker: failed to enqueue scheduled %s job: %v", jobType, err)
		}
	})
	return err
}

// Start begins processing jobs and firing scheduled enqueues. It returns
// immediately; processing happens on background goroutines.
func (w *Worker) Start() {
	w.scheduler.StartAsync()
	go w.queue.ProcessJobs()
	log.Println("worker: started job processing")
}

// Stop halts the scheduler and the processing loop
func (w *Worker) Stop() {
	w.scheduler.Stop()
	w.queue.Stop()
	log.Println("worker: stopped job processing")
}
