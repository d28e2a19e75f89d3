package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// IsValidImageType checks if content type is a valid image type
func IsValidImageType(contentType string) bool {
	validTypes := []string{
		"image/jpeg",
		"image/jpg",
		"image/png",
		"image/gif",
		"image/webp",
	}

	ct := strings.ToLower(contentType)
	for _, validType := range validTypes {
		if strings.Contains(ct, validType) {
			return true
		}
	}
	return false
}

// GenerateFilename generates the file name for a generated image
func GenerateFilename(imageType, recordID, ext string) string {
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%s_%s.%s", imageType, recordID, ext)
}

// GenerateStorageKey places a file under the user's folder with a unique suffix.
func GenerateStorageKey(userID, filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	timestamp := time.Now().Unix()
	uuid := uuid.New().String()[:8]

	return fmt.Sprintf("generated/%s/%s_%d_%s%s", sanitizeSegment(userID), name, timestamp, uuid, ext)
}

func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
	if s == "" {
		return "anonymous"
	}
	return s
}
