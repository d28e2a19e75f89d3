package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/config"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

// Client posts generation requests to the image webhook and returns the raw
// response body untouched.
type Client struct {
	url        string
	timeout    time.Duration
	maxSize    int64
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg config.WebhookConfig, logger *zap.Logger) *Client {
	return &Client{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		maxSize: cfg.MaxResponseSize,
		// The per-request context carries the deadline.
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Generate sends one payload. Transport failures, non-2xx statuses, timeouts and
// bodies over the size limit wrap apperrs.ErrTransport; a blank body wraps
// apperrs.ErrEmptyResponse.
func (c *Client) Generate(ctx context.Context, payload models.WebhookPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", apperrs.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperrs.ErrTransport, err)
	}
	defer resp.Body.Close()

	// One extra byte tells an oversized body apart from one that fits exactly.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", apperrs.ErrTransport, err)
	}
	if int64(len(raw)) > c.maxSize {
		return "", fmt.Errorf("%w: response exceeds %d bytes", apperrs.ErrTransport, c.maxSize)
	}

	c.logger.Debug("Webhook responded",
		zap.String("image_type", payload.ImageType),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: status %d: %s", apperrs.ErrTransport, resp.StatusCode, snippet(raw))
	}

	if strings.TrimSpace(string(raw)) == "" {
		return "", apperrs.ErrEmptyResponse
	}

	return string(raw), nil
}

func snippet(raw []byte) string {
	const maxSnippet = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > maxSnippet {
		return s[:maxSnippet] + "..."
	}
	return s
}
