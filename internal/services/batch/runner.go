// Package batch runs generation requests one after another with per-item
// error isolation.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/phambaophuc/image-generator/internal/services/extractor"
	"go.uber.org/zap"
)

const DefaultInterItemDelay = time.Second

// SubmitFunc performs one generation: payload construction, the webhook call,
// extraction and any success side effects. The runner only looks at the
// returned result and error.
type SubmitFunc func(ctx context.Context, item *models.BatchItem) (extractor.Result, error)

// ProgressFunc is called after an item reaches a terminal status.
type ProgressFunc func(ctx context.Context, index int, item *models.BatchItem, summary models.BatchSummary)

// CancelCheck reports whether the run should stop before the next item.
type CancelCheck func(ctx context.Context) bool

type Option func(*runOptions)

type runOptions struct {
	onProgress ProgressFunc
	cancelled  CancelCheck
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *runOptions) { o.onProgress = fn }
}

func WithCancelCheck(fn CancelCheck) Option {
	return func(o *runOptions) { o.cancelled = fn }
}

type Runner struct {
	logger *zap.Logger
	delay  time.Duration
}

func NewRunner(delay time.Duration, logger *zap.Logger) *Runner {
	if delay < 0 {
		delay = 0
	}
	return &Runner{logger: logger, delay: delay}
}

// Run processes items strictly in order. A failing item never stops the run;
// only cancellation (context or CancelCheck) does, leaving the remaining items
// pending. An item whose submission fails because ctx ended is left in
// processing rather than failed, so a later run can tell an interruption from a
// real failure. The returned error is non-nil only when the preconditions fail.
func (r *Runner) Run(ctx context.Context, items []*models.BatchItem, submit SubmitFunc, opts ...Option) (models.BatchSummary, error) {
	summary := models.BatchSummary{Total: len(items)}
	if len(items) == 0 {
		return summary, apperrs.ErrEmptyBatch
	}
	for _, item := range items {
		if item.Status != models.StatusPending {
			return summary, fmt.Errorf("%w: item %s is %s", apperrs.ErrItemNotPending, item.ID, item.Status)
		}
	}

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	for i, item := range items {
		if ctx.Err() != nil || (o.cancelled != nil && o.cancelled(ctx)) {
			summary.Cancelled = true
			r.logger.Info("Batch cancelled",
				zap.Int("processed", i),
				zap.Int("total", summary.Total))
			break
		}

		if !r.processItem(ctx, item, submit, &summary) {
			summary.Cancelled = true
			r.logger.Info("Batch interrupted",
				zap.String("item_id", item.ID),
				zap.Int("processed", i),
				zap.Int("total", summary.Total))
			break
		}

		if o.onProgress != nil {
			o.onProgress(ctx, i, item, summary)
		}

		if i < len(items)-1 {
			wait(ctx, r.delay)
		}
	}

	r.logger.Info("Batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("total", summary.Total),
		zap.Bool("cancelled", summary.Cancelled))

	return summary, nil
}

// processItem reports false when the item was interrupted by ctx and left in
// processing.
func (r *Runner) processItem(ctx context.Context, item *models.BatchItem, submit SubmitFunc, summary *models.BatchSummary) bool {
	// Items were checked to be pending, so these transitions cannot fail.
	_ = item.MarkProcessing()
	r.logger.Debug("Processing batch item", zap.String("item_id", item.ID))

	result, err := submit(ctx, item)
	if err == nil && !result.Found() {
		err = result.Err()
	}

	if err != nil && ctx.Err() != nil {
		return false
	}

	if err != nil {
		_ = item.Fail(apperrs.UserMessage(err))
		summary.Failed++
		r.logger.Warn("Batch item failed",
			zap.String("item_id", item.ID),
			zap.Error(err))
		return true
	}

	_ = item.Complete(result.Payload)
	summary.Succeeded++
	r.logger.Info("Batch item completed",
		zap.String("item_id", item.ID),
		zap.String("strategy", result.Strategy))
	return true
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
