package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/http/middleware"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

type BalanceReader interface {
	Balance(ctx context.Context, userID string) (int, error)
}

type CreditsHandler struct {
	ledger BalanceReader
	logger *zap.Logger
}

func NewCreditsHandler(ledger BalanceReader, logger *zap.Logger) *CreditsHandler {
	return &CreditsHandler{ledger: ledger, logger: logger}
}

func (h *CreditsHandler) Get(c *gin.Context) {
	userID := middleware.UserID(c)
	balance, err := h.ledger.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, models.CreditsResponse{UserID: userID, Balance: balance})
}
