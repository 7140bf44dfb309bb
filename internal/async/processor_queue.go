package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/metrics"
	"github.com/joseph-ayodele/records-ingest/internal/pipeline"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// FileProcessor is satisfied by *pipeline.Processor.
type FileProcessor interface {
	ProcessFile(ctx context.Context, fileID uuid.UUID) (pipeline.Report, error)
}

type ProcessorQueue struct {
	proc    FileProcessor
	logger  *slog.Logger
	metrics *metrics.Metrics
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders hold the read lock; Shutdown takes the write lock before closing ch.
	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.work(i + 1)
		}
	})
}

func (q *ProcessorQueue) work(workerID int) {
	defer q.wg.Done()
	q.logger.Info("queue.worker.started", "worker_id", workerID)

	for job := range q.ch {
		q.metrics.SetQueueDepth(len(q.ch))

		ctx := context.Background()
		if job.TraceID != "" {
			ctx = common.WithTraceID(ctx, job.TraceID)
		}
		ctx, cancel := context.WithTimeout(ctx, q.timeout)
		rep, err := q.proc.ProcessFile(ctx, job.FileID)
		cancel()

		logger := common.LoggerFrom(ctx, q.logger)
		if err != nil {
			logger.Error("queue.job.failed", "worker_id", workerID, "file_id", job.FileID, "error", err)
			continue
		}
		logger.Debug("queue.job.done",
			"worker_id", workerID,
			"file_id", job.FileID,
			"outcome", rep.Outcome,
			"waited_ms", time.Since(job.SubmittedAt).Milliseconds(),
		)
	}

	q.logger.Info("queue.worker.stopped", "worker_id", workerID)
}

// Enqueue hands job to the workers. When the buffer is full it blocks until
// a slot frees up or ctx ends.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "file_id", job.FileID)
		return ErrClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	if job.TraceID == "" {
		job.TraceID = common.TraceIDFromContext(ctx)
	}

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "file_id", job.FileID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Debug("queued file for processing", "file_id", job.FileID, "category", job.Category)
	return nil
}

// Shutdown stops accepting jobs and waits for queued ones to finish or for
// ctx to end, whichever comes first.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
