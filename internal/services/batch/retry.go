package batch

import (
	"context"
	"time"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/phambaophuc/image-generator/internal/services/extractor"
	"go.uber.org/zap"
)

// WithRetry wraps submit so that a single item gets up to attempts tries.
// Only failures a user could fix by retrying are retried; attempts <= 1
// returns submit unchanged.
func WithRetry(submit SubmitFunc, attempts int, delay time.Duration, logger *zap.Logger) SubmitFunc {
	if attempts <= 1 {
		return submit
	}

	return func(ctx context.Context, item *models.BatchItem) (extractor.Result, error) {
		var (
			result extractor.Result
			err    error
		)
		for attempt := 1; attempt <= attempts; attempt++ {
			result, err = submit(ctx, item)

			failure := err
			if failure == nil {
				failure = result.Err()
			}
			if failure == nil || !apperrs.Retryable(failure) || attempt == attempts {
				break
			}

			logger.Warn("Retrying batch item",
				zap.String("item_id", item.ID),
				zap.Int("attempt", attempt),
				zap.Error(failure))

			wait(ctx, delay)
			if ctx.Err() != nil {
				break
			}
		}
		return result, err
	}
}
