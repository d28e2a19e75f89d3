package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

const maxCacheAge = 3600

// statusFor maps an error kind to the HTTP status the API reports for it.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrs.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, apperrs.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrs.ErrEmptyBatch), errors.Is(err, apperrs.ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, apperrs.ErrQueueUnavailable):
		return http.StatusServiceUnavailable
	case apperrs.Retryable(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func messageFor(err error, status int) string {
	switch {
	case status == http.StatusNotFound:
		return "Not found"
	case status == http.StatusInternalServerError:
		return "Internal server error"
	case status == http.StatusBadGateway, errors.Is(err, apperrs.ErrInsufficientCredits):
		return apperrs.UserMessage(err)
	}
	return err.Error()
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}

	c.JSON(status, models.APIResponse{
		Success:   false,
		Error:     messageFor(err, status),
		Retryable: apperrs.Retryable(err),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, models.APIResponse{
		Success: true,
		Data:    data,
	})
}
