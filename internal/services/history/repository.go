package history

import (
	"context"
	stderrors "errors"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// listColumns leaves out the payload; callers fetch it one record at a time.
var listColumns = []string{
	"id", "user_id", "type", "image_url", "format", "width", "height",
	"title", "content", "style", "colour", "timestamp",
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, record *models.HistoryRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return errors.Wrapf(err, "failed to create history record %s", record.ID)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, userID, id string) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&record).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrs.ErrRecordNotFound, "history record %s", id)
		}
		return nil, errors.Wrapf(err, "failed to get history record %s", id)
	}
	return &record, nil
}

// List returns the newest records first, without their payloads.
func (r *Repository) List(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	err := r.db.WithContext(ctx).
		Select(listColumns).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list history of %s", userID)
	}
	return records, nil
}

func (r *Repository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.HistoryRecord{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "failed to delete history record %s", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(apperrs.ErrRecordNotFound, "history record %s", id)
	}
	return nil
}

// CountByType returns how many images of each type were generated.
func (r *Repository) CountByType(ctx context.Context) (map[models.ImageType]int64, error) {
	var rows []struct {
		Type  models.ImageType
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.HistoryRecord{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count history by type")
	}

	counts := make(map[models.ImageType]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
