package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"
)

var errObjectStorageDisabled = errors.New("object storage is not configured")

// Upload stores a generated image in Supabase Storage and returns its public URL.
func (s *StorageService) Upload(ctx context.Context, data []byte, key, contentType string) (string, error) {
	if s.sbClient == nil {
		return "", errObjectStorageDisabled
	}

	_, err := s.sbClient.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to supabase: %w", key, err)
	}

	publicURL := s.sbClient.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

// Delete removes file from Supabase Storage
func (s *StorageService) Delete(ctx context.Context, path string) error {
	if s.sbClient == nil {
		return nil
	}
	_, err := s.sbClient.RemoveFile(s.bucket, []string{path})
	return err
}
