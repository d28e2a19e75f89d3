package storage

import (
	"time"

	"github.com/phambaophuc/image-generator/internal/config"
	"github.com/redis/go-redis/v9"
	storage_go "github.com/supabase-community/storage-go"
)

const historyCacheTTL = 7 * 24 * time.Hour

// StorageService wraps Supabase Storage for generated images and Redis for the
// recent-history cache and batch job state.
type StorageService struct {
	sbClient     *storage_go.Client
	redisClient  *redis.Client
	bucket       string
	historyLimit int
	jobTTL       time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	var sbClient *storage_go.Client
	if cfg.Supabase.URL != "" && cfg.Supabase.BUCKET != "" {
		sbClient = storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.KEY, nil)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return newStorageService(sbClient, redisClient, cfg), nil
}

func newStorageService(sbClient *storage_go.Client, redisClient *redis.Client, cfg *config.Config) *StorageService {
	historyLimit := cfg.Redis.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = 50
	}
	jobTTL := cfg.Redis.BatchJobTTL
	if jobTTL <= 0 {
		jobTTL = 24 * time.Hour
	}

	return &StorageService{
		sbClient:     sbClient,
		redisClient:  redisClient,
		bucket:       cfg.Supabase.BUCKET,
		historyLimit: historyLimit,
		jobTTL:       jobTTL,
	}
}

// ObjectStorageEnabled reports whether Supabase Storage is configured.
func (s *StorageService) ObjectStorageEnabled() bool {
	return s.sbClient != nil
}

func (s *StorageService) Close() error {
	return s.redisClient.Close()
}
