package handlers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/http/middleware"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

type HistoryStore interface {
	List(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error)
	Get(ctx context.Context, userID, id string) (*models.HistoryRecord, error)
	Delete(ctx context.Context, userID, id string) error
}

type Thumbnailer interface {
	Thumbnail(data []byte, width int) ([]byte, error)
}

type HistoryHandler struct {
	history HistoryStore
	thumbs  Thumbnailer
	logger  *zap.Logger
}

func NewHistoryHandler(history HistoryStore, thumbs Thumbnailer, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, thumbs: thumbs, logger: logger}
}

func (h *HistoryHandler) List(c *gin.Context) {
	limit, err := optionalInt(c.Query("limit"), "limit")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	records, err := h.history.List(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	respondOK(c, http.StatusOK, records)
}

func (h *HistoryHandler) Get(c *gin.Context) {
	record, err := h.history.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, record)
}

func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.history.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Thumbnail serves a JPEG preview of a stored image.
func (h *HistoryHandler) Thumbnail(c *gin.Context) {
	width, err := optionalInt(c.Query("width"), "width")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	record, err := h.history.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	data, err := base64.StdEncoding.DecodeString(record.Base64)
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("decode stored image %s: %w", record.ID, err))
		return
	}

	thumb, err := h.thumbs.Thumbnail(data, width)
	if err != nil {
		respondError(c, h.logger, fmt.Errorf("thumbnail %s: %w", record.ID, err))
		return
	}

	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxCacheAge))
	c.Data(http.StatusOK, "image/jpeg", thumb)
}

func optionalInt(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be a number", name)
	}
	return n, nil
}
