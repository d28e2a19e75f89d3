package storage

import (
	"context"
	"testing"
	"time"

	"github.com/phambaophuc/image-generator/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func unreachableStorage() *StorageService {
	cfg := &config.Config{}
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	return newStorageService(nil, client, cfg)
}

func TestNewStorageService_Defaults(t *testing.T) {
	s := unreachableStorage()
	defer s.Close()

	assert.Equal(t, 50, s.historyLimit)
	assert.Equal(t, 24*time.Hour, s.jobTTL)
	assert.False(t, s.ObjectStorageEnabled())
}

func TestUpload_WithoutObjectStorage(t *testing.T) {
	s := unreachableStorage()
	defer s.Close()

	_, err := s.Upload(context.Background(), []byte("x"), "k.png", "image/png")
	assert.ErrorIs(t, err, errObjectStorageDisabled)
	assert.NoError(t, s.Delete(context.Background(), "k.png"))
}

func TestHealthCheck_Unreachable(t *testing.T) {
	s := unreachableStorage()
	defer s.Close()

	status := s.HealthCheck(context.Background())

	assert.Contains(t, status["redis"], "unhealthy")
	assert.Equal(t, "not configured", status["supabase"])
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "history:u1", historyKey("u1"))
	assert.Equal(t, "batch_job:j1", jobKey("j1"))
	assert.Equal(t, "batch_cancel:j1", cancelKey("j1"))
}
