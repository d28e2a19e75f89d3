// Package apperrs holds the error kinds shared by the generation pipeline.
package apperrs

import "errors"

// Generation failure kinds. Everything but ErrDownstreamSideEffect fails the item.
var (
	ErrEmptyResponse        = errors.New("webhook returned an empty response")
	ErrMalformedPayload     = errors.New("no image found in webhook response")
	ErrInvalidImageData     = errors.New("webhook returned invalid image data")
	ErrTransport            = errors.New("webhook request failed")
	ErrDownstreamSideEffect = errors.New("post-generation bookkeeping failed")
)

var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrRecordNotFound      = errors.New("record not found")
	ErrEmptyBatch          = errors.New("batch has no items")
	ErrBatchTooLarge       = errors.New("batch has too many items")
	ErrItemNotPending      = errors.New("batch item is not pending")
	ErrInvalidTransition   = errors.New("invalid batch item status transition")
	ErrQueueUnavailable    = errors.New("batch queue is not available")
)

// UserMessage returns a short message suitable for a failed row or a retry prompt.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyResponse):
		return "The image service returned an empty response. Please try again."
	case errors.Is(err, ErrMalformedPayload):
		return "The image service response did not contain an image."
	case errors.Is(err, ErrInvalidImageData):
		return "The image service returned unreadable image data."
	case errors.Is(err, ErrTransport):
		return "Could not reach the image service. Please try again."
	case errors.Is(err, ErrInsufficientCredits):
		return "Not enough credits for this generation."
	default:
		return "Image generation failed."
	}
}

// Retryable reports whether the user should be offered a retry for err.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmptyResponse) ||
		errors.Is(err, ErrMalformedPayload) ||
		errors.Is(err, ErrInvalidImageData) ||
		errors.Is(err, ErrTransport)
}
