package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/config"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/phambaophuc/image-generator/internal/services/batch"
	"github.com/phambaophuc/image-generator/internal/services/extractor"
	"github.com/phambaophuc/image-generator/internal/services/processor"
	"github.com/phambaophuc/image-generator/pkg/utils"
	"go.uber.org/zap"
)

type WebhookClient interface {
	Generate(ctx context.Context, payload models.WebhookPayload) (string, error)
}

type CreditLedger interface {
	Balance(ctx context.Context, userID string) (int, error)
	Deduct(ctx context.Context, userID string, amount int) (int, error)
	Grant(ctx context.Context, userID string, amount int) (int, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, record *models.HistoryRecord) error
}

type ImageStore interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
}

type ImageInspector interface {
	Inspect(data []byte) (processor.ImageInfo, error)
}

type Service struct {
	client    WebhookClient
	credits   CreditLedger
	history   HistoryRecorder
	images    ImageStore
	inspector ImageInspector
	runner    *batch.Runner
	costs     config.CreditsConfig
	retry     config.BatchConfig
	logger    *zap.Logger
}

type Deps struct {
	Client    WebhookClient
	Credits   CreditLedger
	History   HistoryRecorder
	Images    ImageStore // optional
	Inspector ImageInspector
	Runner    *batch.Runner
}

func NewService(deps Deps, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		client:    deps.Client,
		credits:   deps.Credits,
		history:   deps.History,
		images:    deps.Images,
		inspector: deps.Inspector,
		runner:    deps.Runner,
		costs:     cfg.Credits,
		retry:     cfg.Batch,
		logger:    logger,
	}
}

// Cost is the number of credits one image of the given type consumes.
func (s *Service) Cost(imageType models.ImageType) int {
	if imageType == models.ImageTypeInfographic {
		return s.costs.InfographicCost
	}
	return s.costs.BlogCost
}

// Submitter returns the per-item function the batch runner drives for a user.
func (s *Service) Submitter(userID string, imageType models.ImageType) batch.SubmitFunc {
	submit := func(ctx context.Context, item *models.BatchItem) (extractor.Result, error) {
		result, _, err := s.submit(ctx, userID, imageType, item)
		return result, err
	}
	return batch.WithRetry(submit, s.retry.MaxAttempts, s.retry.RetryDelay, s.logger)
}

// Generate runs a single prompt as a one-item batch and returns the stored record.
func (s *Service) Generate(ctx context.Context, userID string, req models.GenerateRequest) (*models.GenerateResponse, error) {
	var (
		record  *models.HistoryRecord
		failure error
	)
	submit := func(ctx context.Context, item *models.BatchItem) (extractor.Result, error) {
		result, rec, err := s.submit(ctx, userID, req.Type, item)
		record, failure = rec, err
		if failure == nil {
			failure = result.Err()
		}
		return result, err
	}

	item := models.NewBatchItem(req.PromptFields)
	if _, err := s.runner.Run(ctx, []*models.BatchItem{item}, submit); err != nil {
		return nil, err
	}

	if item.Status != models.StatusCompleted {
		if failure == nil {
			failure = ctx.Err()
		}
		return nil, failure
	}

	balance, err := s.credits.Balance(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to read balance after generation", zap.String("user_id", userID), zap.Error(err))
	}

	return &models.GenerateResponse{Record: record, RemainingCredits: balance}, nil
}

// submit reserves the item's cost before calling the webhook and refunds it
// when no usable image comes back, so concurrent requests cannot overdraw.
func (s *Service) submit(ctx context.Context, userID string, imageType models.ImageType, item *models.BatchItem) (extractor.Result, *models.HistoryRecord, error) {
	cost := s.Cost(imageType)
	if _, err := s.credits.Deduct(ctx, userID, cost); err != nil {
		return extractor.Result{}, nil, fmt.Errorf("failed to reserve credits: %w", err)
	}

	result, data, err := s.generate(ctx, imageType, item)
	if err != nil || !result.Found() {
		s.refund(context.WithoutCancel(ctx), userID, cost, item)
		return result, nil, err
	}

	record := s.recordSuccess(context.WithoutCancel(ctx), userID, imageType, item, result, data)
	item.RecordID, item.ImageURL = record.ID, record.ImageURL
	return result, record, nil
}

func (s *Service) generate(ctx context.Context, imageType models.ImageType, item *models.BatchItem) (extractor.Result, []byte, error) {
	raw, err := s.client.Generate(ctx, BuildPayload(imageType, item.Fields))
	if err != nil {
		return extractor.Result{}, nil, err
	}

	result := extractor.Extract(raw)
	s.logger.Debug("Extraction finished",
		zap.String("item_id", item.ID),
		zap.String("outcome", string(result.Outcome)),
		zap.String("diagnostic", result.Diagnostic))
	if !result.Found() {
		return result, nil, nil
	}

	// Validation only decodes a prefix; the tail can still be corrupt.
	data, err := result.Decode()
	if err != nil {
		return result, nil, fmt.Errorf("%w: %v", apperrs.ErrInvalidImageData, err)
	}
	return result, data, nil
}

func (s *Service) refund(ctx context.Context, userID string, cost int, item *models.BatchItem) {
	if _, err := s.credits.Grant(ctx, userID, cost); err != nil {
		s.logger.Warn("Failed to refund reserved credits",
			zap.String("item_id", item.ID),
			zap.String("user_id", userID),
			zap.Int("amount", cost),
			zap.Error(fmt.Errorf("%w: %w", apperrs.ErrDownstreamSideEffect, err)))
	}
}

// recordSuccess performs the bookkeeping for a generated image. None of it can
// fail the generation: errors are logged as downstream side-effect failures.
func (s *Service) recordSuccess(
	ctx context.Context,
	userID string,
	imageType models.ImageType,
	item *models.BatchItem,
	result extractor.Result,
	data []byte,
) *models.HistoryRecord {
	record := models.NewHistoryRecord(&models.GeneratedImage{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      imageType,
		Base64:    result.Payload,
		Fields:    item.Fields,
		Timestamp: time.Now().UTC(),
	})

	s.describe(record, data)
	s.upload(ctx, record, data)

	if err := s.history.Record(ctx, record); err != nil {
		s.sideEffectFailed("record history", record, err)
	}

	return record
}

func (s *Service) describe(record *models.HistoryRecord, data []byte) {
	if s.inspector == nil {
		return
	}
	info, err := s.inspector.Inspect(data)
	if err != nil {
		s.sideEffectFailed("inspect image", record, err)
		return
	}
	record.Format, record.Width, record.Height = info.Format, info.Width, info.Height
}

func (s *Service) upload(ctx context.Context, record *models.HistoryRecord, data []byte) {
	if s.images == nil {
		return
	}
	filename := utils.GenerateFilename(string(record.Type), record.ID, processor.Extension(record.Format))
	key := utils.GenerateStorageKey(record.UserID, filename)
	contentType := processor.ContentType(data)
	if !utils.IsValidImageType(contentType) {
		s.sideEffectFailed("upload image", record, fmt.Errorf("refusing to store %s content", contentType))
		return
	}
	url, err := s.images.Upload(ctx, data, key, contentType)
	if err != nil {
		s.sideEffectFailed("upload image", record, err)
		return
	}
	record.ImageURL, record.StorageKey = url, key
}

func (s *Service) sideEffectFailed(step string, record *models.HistoryRecord, err error) {
	s.logger.Warn("Generation bookkeeping failed",
		zap.String("step", step),
		zap.String("record_id", record.ID),
		zap.String("user_id", record.UserID),
		zap.Error(fmt.Errorf("%w: %w", apperrs.ErrDownstreamSideEffect, err)))
}
