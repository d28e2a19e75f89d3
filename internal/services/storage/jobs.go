package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/redis/go-redis/v9"
)

func jobKey(id string) string {
	return "batch_job:" + id
}

func cancelKey(id string) string {
	return "batch_cancel:" + id
}

// SaveJob stores job under its TTL. Items linked to a history record are saved
// without their payload; clients fetch it through the history endpoints.
func (s *StorageService) SaveJob(ctx context.Context, job *models.BatchJob) error {
	data, err := json.Marshal(withoutPayloads(job))
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.redisClient.Set(ctx, jobKey(job.ID), data, s.jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

func (s *StorageService) GetJob(ctx context.Context, id string) (*models.BatchJob, error) {
	data, err := s.redisClient.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("batch job %s: %w", id, apperrs.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var job models.BatchJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// RequestCancel flags a job; the worker running it stops before its next item.
func (s *StorageService) RequestCancel(ctx context.Context, id string) error {
	return s.redisClient.Set(ctx, cancelKey(id), "1", s.jobTTL).Err()
}

func (s *StorageService) CancelRequested(ctx context.Context, id string) (bool, error) {
	n, err := s.redisClient.Exists(ctx, cancelKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("cache get error: %w", err)
	}
	return n > 0, nil
}

func withoutPayloads(job *models.BatchJob) *models.BatchJob {
	stored := *job
	stored.Items = make([]*models.BatchItem, len(job.Items))
	for i, item := range job.Items {
		copied := *item
		if copied.RecordID != "" {
			copied.ResultImage = ""
		}
		stored.Items[i] = &copied
	}
	return &stored
}
