// Package jobs owns batch jobs: creating them, running them in-request or
// through the queue, and reporting their progress.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/phambaophuc/image-generator/internal/services/batch"
	"go.uber.org/zap"
)

const interruptedMessage = "Generation was interrupted. Please try again."

type Store interface {
	SaveJob(ctx context.Context, job *models.BatchJob) error
	GetJob(ctx context.Context, id string) (*models.BatchJob, error)
	RequestCancel(ctx context.Context, id string) error
	CancelRequested(ctx context.Context, id string) (bool, error)
}

type Submitters interface {
	Submitter(userID string, imageType models.ImageType) batch.SubmitFunc
}

type Publisher interface {
	PublishJob(ctx context.Context, jobID string) error
}

type Service struct {
	runner     *batch.Runner
	submitters Submitters
	store      Store
	publisher  Publisher
	limits     Limits
	logger     *zap.Logger
}

// Limits bounds batch sizes. MaxSyncItems keeps in-request batches inside the
// server's write timeout; anything larger has to go through the queue.
type Limits struct {
	MaxItems     int
	MaxSyncItems int
}

func NewService(runner *batch.Runner, submitters Submitters, store Store, limits Limits, logger *zap.Logger) *Service {
	return &Service{
		runner:     runner,
		submitters: submitters,
		store:      store,
		limits:     limits,
		logger:     logger,
	}
}

// SetPublisher enables asynchronous jobs. Without one, async requests fail
// with apperrs.ErrQueueUnavailable.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// Create builds a job from the request and either runs it to completion or
// hands it to the queue.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateBatchRequest) (*models.BatchJob, error) {
	if len(req.Items) == 0 {
		return nil, apperrs.ErrEmptyBatch
	}
	if len(req.Items) > s.limits.MaxItems {
		return nil, fmt.Errorf("%w: %d items, the limit is %d", apperrs.ErrBatchTooLarge, len(req.Items), s.limits.MaxItems)
	}
	if !req.Async && len(req.Items) > s.limits.MaxSyncItems {
		return nil, fmt.Errorf("%w: %d items cannot run in-request, the limit is %d; submit with async set",
			apperrs.ErrBatchTooLarge, len(req.Items), s.limits.MaxSyncItems)
	}

	job := models.NewBatchJob(userID, req.Type, req.Items)

	if !req.Async {
		s.save(ctx, job)
		if _, err := s.Execute(ctx, job); err != nil {
			// Nothing will redeliver an in-request job, so close it out.
			if ctx.Err() != nil {
				failInterrupted(job)
				s.finish(context.WithoutCancel(ctx), job, true)
			}
			return nil, err
		}
		return job, nil
	}

	if s.publisher == nil {
		return nil, apperrs.ErrQueueUnavailable
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.publisher.PublishJob(ctx, job.ID); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrs.ErrQueueUnavailable, err)
	}
	return job, nil
}

// Execute runs every pending item of job. Items left in processing by an
// earlier, interrupted run are failed rather than retried. If ctx ends before
// the job does and no cancel was requested, the job is saved as processing and
// the context error is returned.
func (s *Service) Execute(ctx context.Context, job *models.BatchJob) (models.BatchSummary, error) {
	failInterrupted(job)

	job.Status = models.JobStatusProcessing
	job.Recount()
	s.save(ctx, job)

	cancelled := false
	if pending := job.PendingItems(); len(pending) > 0 {
		summary, err := s.runner.Run(ctx, pending, s.submitters.Submitter(job.UserID, job.Type),
			batch.WithProgress(func(ctx context.Context, _ int, _ *models.BatchItem, _ models.BatchSummary) {
				job.Recount()
				s.save(ctx, job)
			}),
			batch.WithCancelCheck(func(ctx context.Context) bool {
				return s.cancelRequested(ctx, job.ID)
			}),
		)
		if err != nil {
			return job.Summary, err
		}
		cancelled = summary.Cancelled
	}

	// A dead context without a cancel request is a shutdown or a dropped
	// client. The job stays in processing so a redelivery can resume it.
	if cancelled && ctx.Err() != nil && !s.cancelRequested(context.WithoutCancel(ctx), job.ID) {
		job.Recount()
		s.save(context.WithoutCancel(ctx), job)
		s.logger.Info("Batch job interrupted",
			zap.String("job_id", job.ID),
			zap.Int("succeeded", job.Summary.Succeeded),
			zap.Int("total", job.Summary.Total))
		return job.Summary, fmt.Errorf("batch job %s interrupted: %w", job.ID, ctx.Err())
	}

	s.finish(context.WithoutCancel(ctx), job, cancelled)
	return job.Summary, nil
}

func (s *Service) finish(ctx context.Context, job *models.BatchJob, cancelled bool) {
	now := time.Now()
	job.FinishedAt = &now
	job.Recount()
	job.Summary.Cancelled = cancelled
	if cancelled {
		job.Status = models.JobStatusCancelled
	} else {
		job.Status = models.JobStatusCompleted
	}
	s.save(ctx, job)

	s.logger.Info("Batch job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(job.Status)),
		zap.Int("succeeded", job.Summary.Succeeded),
		zap.Int("total", job.Summary.Total))
}

// Get returns the job if it belongs to userID.
func (s *Service) Get(ctx context.Context, userID, id string) (*models.BatchJob, error) {
	job, err := s.store.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, fmt.Errorf("batch job %s: %w", id, apperrs.ErrRecordNotFound)
	}
	if !job.CancelRequested {
		job.CancelRequested = s.cancelRequested(ctx, id)
	}
	return job, nil
}

func (s *Service) Cancel(ctx context.Context, userID, id string) (*models.BatchJob, error) {
	job, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if job.Status == models.JobStatusCompleted || job.Status == models.JobStatusCancelled {
		return job, nil
	}

	if err := s.store.RequestCancel(ctx, id); err != nil {
		return nil, err
	}
	job.CancelRequested = true
	return job, nil
}

// Load fetches a job for a queue worker.
func (s *Service) Load(ctx context.Context, id string) (*models.BatchJob, error) {
	return s.store.GetJob(ctx, id)
}

func failInterrupted(job *models.BatchJob) {
	for _, item := range job.Items {
		if item.Status == models.StatusProcessing {
			_ = item.Fail(interruptedMessage)
		}
	}
}

func (s *Service) cancelRequested(ctx context.Context, id string) bool {
	requested, err := s.store.CancelRequested(ctx, id)
	if err != nil {
		s.logger.Warn("Failed to read cancel flag", zap.String("job_id", id), zap.Error(err))
		return false
	}
	return requested
}

func (s *Service) save(ctx context.Context, job *models.BatchJob) {
	if err := s.store.SaveJob(ctx, job); err != nil {
		s.logger.Warn("Failed to save batch job", zap.String("job_id", job.ID), zap.Error(err))
	}
}
