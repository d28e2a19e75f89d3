package history

import (
	"context"

	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Cache keeps each user's most recent records for quick listing.
type Cache interface {
	PushHistory(ctx context.Context, record *models.HistoryRecord) error
	RecentHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error)
	RemoveHistory(ctx context.Context, userID, id string) error
}

// ObjectRemover deletes uploaded images.
type ObjectRemover interface {
	Delete(ctx context.Context, path string) error
}

type Service struct {
	repo    *Repository
	cache   Cache
	objects ObjectRemover
	logger  *zap.Logger
}

func NewService(repo *Repository, cache Cache, objects ObjectRemover, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, objects: objects, logger: logger}
}

// Record persists a record and adds it to the recent-history cache. The cache
// is updated even when the database write fails, so the user still sees it.
func (s *Service) Record(ctx context.Context, record *models.HistoryRecord) error {
	err := s.repo.Create(ctx, record)

	if s.cache != nil {
		if cacheErr := s.cache.PushHistory(ctx, record); cacheErr != nil {
			s.logger.Warn("Failed to cache history record",
				zap.String("record_id", record.ID),
				zap.Error(cacheErr))
		}
	}

	return err
}

// List returns the newest records first. The cache only answers when it can
// fill the whole page; it holds a capped, possibly partial window.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	limit = ClampLimit(limit)

	if s.cache != nil {
		records, err := s.cache.RecentHistory(ctx, userID, limit)
		switch {
		case err != nil:
			s.logger.Warn("History cache read failed", zap.String("user_id", userID), zap.Error(err))
		case len(records) >= limit:
			return records, nil
		}
	}

	return s.repo.List(ctx, userID, limit)
}

func (s *Service) Get(ctx context.Context, userID, id string) (*models.HistoryRecord, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	record, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.RemoveHistory(ctx, userID, id); err != nil {
			s.logger.Warn("Failed to drop cached history record", zap.String("record_id", id), zap.Error(err))
		}
	}
	if s.objects != nil && record.StorageKey != "" {
		if err := s.objects.Delete(ctx, record.StorageKey); err != nil {
			s.logger.Warn("Failed to delete stored image", zap.String("key", record.StorageKey), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) CountByType(ctx context.Context) (map[models.ImageType]int64, error) {
	return s.repo.CountByType(ctx)
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
