package queue

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"homescout/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// ReportJob asks for one report to be generated and written to disk
type ReportJob struct {
	Name        string
	Location    string
	Variant     string
	Format      string
	Query       models.SearchQuery
	RequestedAt time.Time
}

// JobQueue is an in-memory queue of report jobs
type JobQueue struct {
	items    chan ReportJob
	done     chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(ReportJob) error
}

// NewJobQueue creates a queue holding at most bufferSize pending jobs
func NewJobQueue(bufferSize int, logger *logrus.Logger) *JobQueue {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &JobQueue{
		items:    make(chan ReportJob, bufferSize),
		done:     make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(ReportJob) error, 0),
	}
}

// Push adds a job without blocking
func (q *JobQueue) Push(job ReportJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- job:
		q.logger.WithFields(logrus.Fields{
			"job":      job.Name,
			"location": job.Location,
			"variant":  job.Variant,
		}).Debug("Pushed report job to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler that is called for each job
func (q *JobQueue) Subscribe(handler func(ReportJob) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins dispatching jobs to the handlers
func (q *JobQueue) Start() {
	go q.process()
}

func (q *JobQueue) process() {
	for {
		select {
		case <-q.done:
			return
		case job, ok := <-q.items:
			if !ok {
				return
			}
			q.dispatch(job)
		}
	}
}

func (q *JobQueue) dispatch(job ReportJob) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(job); err != nil {
			q.logger.WithError(err).WithField("job", job.Name).Error("Handler failed to process report job")
		}
	}
}

// Close stops the queue and rejects new jobs
func (q *JobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.done)
	close(q.items)
	return nil
}

// Len returns the number of pending jobs
func (q *JobQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *JobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
