package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	q.workers.Add(1)
	go func() {
		defer q.workers.Done()
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	requeue, err := handleMessage(ctx, q.jobs, msg.Body)
	if err != nil {
		q.logger.Error("Job processing failed",
			zap.Error(err),
			zap.Int("worker_id", workerID),
			zap.Bool("requeue", requeue))
		if nackErr := msg.Nack(false, requeue); nackErr != nil {
			q.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message", zap.Error(err))
	}
}

// handleMessage runs the job named by body. It reports whether a failed
// message is worth redelivering.
func handleMessage(ctx context.Context, jobs JobRunner, body []byte) (requeue bool, err error) {
	var m jobMessage
	if err := json.Unmarshal(body, &m); err != nil || m.JobID == "" {
		return false, fmt.Errorf("malformed job message: %q", body)
	}

	job, err := jobs.Load(ctx, m.JobID)
	if err != nil {
		return !errors.Is(err, apperrs.ErrRecordNotFound), fmt.Errorf("load job %s: %w", m.JobID, err)
	}

	// Redelivered after the job already finished.
	if job.Status == models.JobStatusCompleted || job.Status == models.JobStatusCancelled {
		return false, nil
	}

	// An interrupted job is still processing and resumes on redelivery.
	if _, err := jobs.Execute(ctx, job); err != nil {
		return ctx.Err() != nil, fmt.Errorf("execute job %s: %w", m.JobID, err)
	}
	return false, nil
}

// Wait blocks until every worker goroutine has returned. Cancel the context
// given to StartWorker first.
func (q *QueueService) Wait() {
	q.workers.Wait()
}
