package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/image-generator/internal/models"
)

func historyKey(userID string) string {
	return "history:" + userID
}

// PushHistory prepends a record, without its payload, to the user's capped list.
func (s *StorageService) PushHistory(ctx context.Context, record *models.HistoryRecord) error {
	entry := *record
	entry.Base64 = ""

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}

	key := historyKey(record.UserID)
	pipe := s.redisClient.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(s.historyLimit-1))
	pipe.Expire(ctx, key, historyCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache push error: %w", err)
	}
	return nil
}

func (s *StorageService) RecentHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	values, err := s.redisClient.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	records := make([]models.HistoryRecord, 0, len(values))
	for _, value := range values {
		var record models.HistoryRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached history: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *StorageService) RemoveHistory(ctx context.Context, userID, id string) error {
	key := historyKey(userID)
	values, err := s.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("cache get error: %w", err)
	}

	for _, value := range values {
		var record models.HistoryRecord
		if json.Unmarshal([]byte(value), &record) == nil && record.ID == id {
			return s.redisClient.LRem(ctx, key, 0, value).Err()
		}
	}
	return nil
}

func (s *StorageService) GetCacheStats(ctx context.Context) (map[string]interface{}, error) {
	dbSize, err := s.redisClient.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}

	historyKeys, _, err := s.redisClient.Scan(ctx, 0, "history:*", 1000).Result()
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"db_keys":      dbSize,
		"history_keys": len(historyKeys),
	}

	return stats, nil
}
