package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-generator/internal/http/middleware"
	"github.com/phambaophuc/image-generator/internal/models"
	"go.uber.org/zap"
)

type BatchJobs interface {
	Create(ctx context.Context, userID string, req models.CreateBatchRequest) (*models.BatchJob, error)
	Get(ctx context.Context, userID, id string) (*models.BatchJob, error)
	Cancel(ctx context.Context, userID, id string) (*models.BatchJob, error)
}

type BatchHandler struct {
	jobs   BatchJobs
	logger *zap.Logger
}

func NewBatchHandler(jobs BatchJobs, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{jobs: jobs, logger: logger}
}

// Create runs a batch in-request, or queues it when the body asks for async.
func (h *BatchHandler) Create(c *gin.Context) {
	var req models.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request: "+err.Error())
		return
	}

	job, err := h.jobs.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	status := http.StatusOK
	if req.Async {
		status = http.StatusAccepted
	}
	respondOK(c, status, job)
}

func (h *BatchHandler) Get(c *gin.Context) {
	job, err := h.jobs.Get(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusOK, job)
}

func (h *BatchHandler) Cancel(c *gin.Context) {
	job, err := h.jobs.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondOK(c, http.StatusAccepted, job)
}
