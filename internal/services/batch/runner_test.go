package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/phambaophuc/image-generator/internal/apperrs"
	"github.com/phambaophuc/image-generator/internal/models"
	"github.com/phambaophuc/image-generator/internal/services/extractor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var validPayload = strings.Repeat("QUJD", 300)

func found() (extractor.Result, error) {
	return extractor.Result{Outcome: extractor.OutcomeFound, Payload: validPayload, Strategy: "json.image"}, nil
}

func newItems(n int) []*models.BatchItem {
	items := make([]*models.BatchItem, n)
	for i := range items {
		items[i] = models.NewBatchItem(models.PromptFields{Content: fmt.Sprintf("item %d", i)})
	}
	return items
}

// scripted returns a submit func that answers the i-th call with steps[i].
func scripted(t *testing.T, steps ...func() (extractor.Result, error)) (SubmitFunc, *[]string) {
	t.Helper()
	var calls []string
	return func(_ context.Context, item *models.BatchItem) (extractor.Result, error) {
		require.Less(t, len(calls), len(steps), "unexpected extra submit call")
		require.Equal(t, models.StatusProcessing, item.Status)
		step := steps[len(calls)]
		calls = append(calls, item.ID)
		return step()
	}, &calls
}

func TestRunner_MixedOutcomes(t *testing.T) {
	items := newItems(3)
	submit, calls := scripted(t,
		found,
		func() (extractor.Result, error) { return extractor.Result{}, fmt.Errorf("post: %w", apperrs.ErrTransport) },
		found,
	)

	summary, err := NewRunner(0, zap.NewNop()).Run(context.Background(), items, submit)
	require.NoError(t, err)

	assert.Equal(t, models.BatchSummary{Succeeded: 2, Failed: 1, Total: 3}, summary)
	assert.Equal(t, models.StatusCompleted, items[0].Status)
	assert.Equal(t, models.StatusFailed, items[1].Status)
	assert.Equal(t, models.StatusCompleted, items[2].Status)

	assert.Equal(t, validPayload, items[0].ResultImage)
	assert.Empty(t, items[1].ResultImage)
	assert.Equal(t, apperrs.UserMessage(apperrs.ErrTransport), items[1].ErrorMessage)

	assert.Equal(t, []string{items[0].ID, items[1].ID, items[2].ID}, *calls, "items run once each, in order")
}

func TestRunner_NonFoundOutcomesFail(t *testing.T) {
	items := newItems(2)
	submit, _ := scripted(t,
		func() (extractor.Result, error) {
			return extractor.Result{Outcome: extractor.OutcomeNotFound, Diagnostic: "nothing"}, nil
		},
		func() (extractor.Result, error) {
			return extractor.Result{Outcome: extractor.OutcomeInvalid, Diagnostic: "too short"}, nil
		},
	)

	summary, err := NewRunner(0, zap.NewNop()).Run(context.Background(), items, submit)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, apperrs.UserMessage(apperrs.ErrMalformedPayload), items[0].ErrorMessage)
	assert.Equal(t, apperrs.UserMessage(apperrs.ErrInvalidImageData), items[1].ErrorMessage)
}

func TestRunner_EveryItemEndsTerminal(t *testing.T) {
	for _, n := range []int{1, 2, 7} {
		items := newItems(n)
		var i int
		submit := func(context.Context, *models.BatchItem) (extractor.Result, error) {
			i++
			if i%2 == 0 {
				return extractor.Result{}, errors.New("boom")
			}
			return found()
		}

		summary, err := NewRunner(0, zap.NewNop()).Run(context.Background(), items, submit)
		require.NoError(t, err)

		assert.Equal(t, n, summary.Total)
		assert.Equal(t, (n+1)/2, summary.Succeeded)
		for _, item := range items {
			assert.True(t, item.Status.IsTerminal())
		}
	}
}

func TestRunner_Preconditions(t *testing.T) {
	runner := NewRunner(0, zap.NewNop())
	submit := func(context.Context, *models.BatchItem) (extractor.Result, error) { return found() }

	_, err := runner.Run(context.Background(), nil, submit)
	assert.ErrorIs(t, err, apperrs.ErrEmptyBatch)

	items := newItems(2)
	items[1].Status = models.StatusCompleted
	_, err = runner.Run(context.Background(), items, submit)
	assert.ErrorIs(t, err, apperrs.ErrItemNotPending)
	assert.Equal(t, models.StatusPending, items[0].Status, "nothing runs when a precondition fails")
}

func TestRunner_InterItemDelay(t *testing.T) {
	delay := 30 * time.Millisecond
	items := newItems(3)
	var stamps []time.Time
	submit := func(context.Context, *models.BatchItem) (extractor.Result, error) {
		stamps = append(stamps, time.Now())
		return found()
	}

	start := time.Now()
	_, err := NewRunner(delay, zap.NewNop()).Run(context.Background(), items, submit)
	require.NoError(t, err)

	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), delay)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), delay)
	assert.Less(t, time.Since(start), 2*delay+time.Second)
}

func TestRunner_CancelCheck(t *testing.T) {
	items := newItems(4)
	submit := func(context.Context, *models.BatchItem) (extractor.Result, error) { return found() }

	var processed int
	summary, err := NewRunner(0, zap.NewNop()).Run(context.Background(), items, submit,
		WithProgress(func(context.Context, int, *models.BatchItem, models.BatchSummary) { processed++ }),
		WithCancelCheck(func(context.Context) bool { return processed >= 2 }),
	)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, models.StatusCompleted, items[1].Status)
	assert.Equal(t, models.StatusPending, items[2].Status)
	assert.Equal(t, models.StatusPending, items[3].Status)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := newItems(2)
	submit := func(context.Context, *models.BatchItem) (extractor.Result, error) {
		t.Fatal("submit must not be called")
		return extractor.Result{}, nil
	}

	summary, err := NewRunner(time.Hour, zap.NewNop()).Run(ctx, items, submit)
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Zero(t, summary.Succeeded)
	assert.Equal(t, models.StatusPending, items[0].Status)
}

func TestRunner_CancelDuringDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := newItems(2)
	submit := func(context.Context, *models.BatchItem) (extractor.Result, error) {
		cancel()
		return found()
	}

	start := time.Now()
	summary, err := NewRunner(time.Hour, zap.NewNop()).Run(ctx, items, submit)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Minute)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, models.StatusPending, items[1].Status)
}

func TestRunner_ProgressReportsRunningSummary(t *testing.T) {
	items := newItems(3)
	submit, _ := scripted(t,
		found,
		func() (extractor.Result, error) { return extractor.Result{}, apperrs.ErrEmptyResponse },
		found,
	)

	var seen []models.BatchSummary
	var indexes []int
	_, err := NewRunner(0, zap.NewNop()).Run(context.Background(), items, submit,
		WithProgress(func(_ context.Context, i int, item *models.BatchItem, s models.BatchSummary) {
			assert.True(t, item.Status.IsTerminal())
			indexes = append(indexes, i)
			seen = append(seen, s)
		}))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, indexes)
	assert.Equal(t, 1, seen[0].Succeeded)
	assert.Equal(t, 1, seen[1].Failed)
	assert.Equal(t, 2, seen[2].Succeeded)
}

func TestRunner_InterruptedItemStaysProcessing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	items := newItems(3)
	submit := func(ctx context.Context, item *models.BatchItem) (extractor.Result, error) {
		if item == items[1] {
			cancel()
			return extractor.Result{}, fmt.Errorf("%w: %v", apperrs.ErrTransport, ctx.Err())
		}
		return found()
	}

	var progressed int
	summary, err := NewRunner(0, zap.NewNop()).Run(ctx, items, submit,
		WithProgress(func(context.Context, int, *models.BatchItem, models.BatchSummary) { progressed++ }))
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 1, progressed)
	assert.Equal(t, models.StatusProcessing, items[1].Status)
	assert.Empty(t, items[1].ErrorMessage)
	assert.Equal(t, models.StatusPending, items[2].Status)
}
