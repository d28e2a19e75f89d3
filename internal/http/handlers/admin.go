package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

const defaultUsersPage = 100

type AdminLedger interface {
	List(ctx context.Context, limit, offset int) ([]models.UserCredits, error)
	Grant(ctx context.Context, userID string, amount int) (int, error)
	Totals(ctx context.Context) (users int64, outstanding int64, err error)
}

type GenerationCounter interface {
	CountByType(ctx context.Context) (map[models.ImageType]int64, error)
}

// StatsFunc reports the figures of one backing service for the dashboard.
type StatsFunc func(ctx context.Context) (map[string]interface{}, error)

type AdminHandler struct {
	ledger     AdminLedger
	counter    GenerationCounter
	queueStats StatsFunc
	cacheStats StatsFunc
	logger     *zap.Logger
}

// NewAdminHandler builds the dashboard handler. queueStats may be nil when
// no queue is connected.
func NewAdminHandler(ledger AdminLedger, counter GenerationCounter, queueStats, cacheStats StatsFunc, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		ledger:     ledger,
		counter:    counter,
		queueStats: queueStats,
		cacheStats: cacheStats,
		logger:     logger,
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	users, outstanding, err := h.ledger.Totals(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	byType, err := h.counter.CountByType(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	stats := models.DashboardStats{
		Users:              users,
		GenerationsByType:  byType,
		OutstandingCredits: outstanding,
		Queue:              h.collect(ctx, "queue", h.queueStats),
		Cache:              h.collect(ctx, "cache", h.cacheStats),
	}
	for _, n := range byType {
		stats.Generations += n
	}

	respondOK(c, http.StatusOK, stats)
}

func (h *AdminHandler) Users(c *gin.Context) {
	limit, err := optionalInt(c.Query("limit"), "limit")
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	offset, err := optionalInt(c.Query("offset"), "offset")
	if err != nil || offset < 0 {
		respondBadRequest(c, "invalid offset")
		return
	}
	if limit <= 0 {
		limit = defaultUsersPage
	}

	users, err := h.ledger.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if users == nil {
		users = []models.UserCredits{}
	}
	respondOK(c, http.StatusOK, users)
}

func (h *AdminHandler) GrantCredits(c *gin.Context) {
	var req models.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	balance, err := h.ledger.Grant(c.Request.Context(), req.UserID, req.Amount)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Credits granted",
		zap.String("user_id", req.UserID),
		zap.Int("amount", req.Amount),
		zap.Int("balance", balance))

	respondOK(c, http.StatusOK, models.CreditsResponse{UserID: req.UserID, Balance: balance})
}

// collect treats a failing stats source as missing rather than failing the dashboard.
func (h *AdminHandler) collect(ctx context.Context, name string, fn StatsFunc) map[string]interface{} {
	if fn == nil {
		return nil
	}
	stats, err := fn(ctx)
	if err != nil {
		h.logger.Warn("Failed to collect stats", zap.String("source", name), zap.Error(err))
		return nil
	}
	return stats
}
