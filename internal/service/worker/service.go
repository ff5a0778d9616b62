package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stacks/internal/config"
	"stacks/internal/domain"
)

// WorkerService processes background jobs
type WorkerService struct {
	config *config.Config
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	queueRepo domain.QueueRepository
	processor *JobProcessor

	stats *WorkerStats
}

// WorkerStats tracks worker performance metrics
type WorkerStats struct {
	JobsProcessed int64
	JobsSucceeded int64
	JobsFailed    int64
	LastJobTime   time.Time
}

// RetryScheduler moves backed-off jobs back into their queue when due.
// Implemented by the Redis queue repository.
type RetryScheduler interface {
	ProcessRetryJobs(ctx context.Context, jobType string) error
}

// New creates a new worker service
func New(
	config *config.Config,
	logger *slog.Logger,
	itemRepo domain.ItemRepository,
	queueRepo domain.QueueRepository,
	store CoverStore,
) *WorkerService {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerService{
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		queueRepo: queueRepo,
		processor: NewJobProcessor(logger, itemRepo, queueRepo, store),
		stats:     &WorkerStats{},
	}
}

// Start begins processing jobs and blocks until an interrupt signal
func (w *WorkerService) Start() error {
	w.logger.Info("Starting worker service...")

	go w.processJobs()
	go w.processRetries()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	w.logger.Info("Worker service is running. Press Ctrl+C to stop.")
	<-stop

	w.logger.Info("Shutting down worker service...")
	return w.Stop()
}

// Stop gracefully shuts down the worker service
func (w *WorkerService) Stop() error {
	w.logger.Info("Stopping worker service...")
	w.cancel()
	w.logger.Info("Worker service stopped")
	return nil
}

// processJobs continuously processes jobs from the queue
func (w *WorkerService) processJobs() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("Job processing stopped")
			return
		case <-ticker.C:
			w.processJobType(domain.JobTypeRehostCover)
			w.processJobType(domain.JobTypeMigrateCovers)
		}
	}
}

// processRetries periodically re-queues jobs whose backoff has expired
func (w *WorkerService) processRetries() {
	scheduler, ok := w.queueRepo.(RetryScheduler)
	if !ok {
		return
	}

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			for _, jobType := range []string{domain.JobTypeRehostCover, domain.JobTypeMigrateCovers} {
				if err := scheduler.ProcessRetryJobs(w.ctx, jobType); err != nil {
					w.logger.Error("Failed to process retry jobs",
						"error", err,
						"job_type", jobType,
					)
				}
			}
		}
	}
}

// processJobType drains up to a batch of pending jobs of one type
func (w *WorkerService) processJobType(jobType string) {
	ctx := w.ctx

	pendingCount, err := w.queueRepo.GetPendingCount(ctx, jobType)
	if err != nil {
		w.logger.Error("Failed to get pending job count",
			"error", err,
			"job_type", jobType,
		)
		return
	}

	if pendingCount == 0 {
		return
	}

	w.logger.Debug("Processing pending jobs",
		"job_type", jobType,
		"count", pendingCount,
	)

	// Limit per cycle to avoid overwhelming the system
	maxJobs := 10
	if pendingCount < maxJobs {
		maxJobs = pendingCount
	}

	for i := 0; i < maxJobs; i++ {
		job, err := w.queueRepo.Dequeue(ctx, jobType)
		if err != nil {
			w.logger.Error("Failed to dequeue job",
				"error", err,
				"job_type", jobType,
			)
			continue
		}

		if job == nil {
			break // No more jobs
		}

		w.processJob(job)
	}
}

// processJob processes a single job
func (w *WorkerService) processJob(job *domain.QueueJob) {
	jobLogger := w.logger.With(
		"job_id", job.ID,
		"job_type", job.Type,
	)

	jobLogger.Info("Processing job")

	var processingErr error
	switch job.Type {
	case domain.JobTypeRehostCover:
		processingErr = w.processor.ProcessRehostCover(w.ctx, job.Payload, jobLogger)
	case domain.JobTypeMigrateCovers:
		processingErr = w.processor.ProcessMigrateCovers(w.ctx, job.Payload, jobLogger)
	default:
		processingErr = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if processingErr != nil {
		jobLogger.Error("Job processing failed", "error", processingErr)
		if err := w.queueRepo.Fail(w.ctx, job.ID, processingErr.Error()); err != nil {
			jobLogger.Error("Failed to mark job as failed", "error", err)
		}
		w.stats.JobsFailed++
	} else {
		jobLogger.Info("Job processed successfully")
		if err := w.queueRepo.Complete(w.ctx, job.ID); err != nil {
			jobLogger.Error("Failed to mark job as completed", "error", err)
		}
		w.stats.JobsSucceeded++
	}

	w.stats.JobsProcessed++
	w.stats.LastJobTime = time.Now()
}
