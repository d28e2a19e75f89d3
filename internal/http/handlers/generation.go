package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/http/middleware"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

type Generator interface {
	Generate(ctx context.Context, userID string, req models.GenerateRequest) (*models.GenerateResponse, error)
}

type GenerationHandler struct {
	generator Generator
	logger    *zap.Logger
}

func NewGenerationHandler(generator Generator, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{generator: generator, logger: logger}
}

func (h *GenerationHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	resp, err := h.generator.Generate(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, resp)
}
