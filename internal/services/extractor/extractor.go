// Package extractor recovers a base64 image payload from a webhook response body.
//
// The webhook's response shape is not fixed: it may be a JSON object carrying the
// image under one of several keys, a bare JSON string, a data URL embedded in
// text, or a JSON fragment inside otherwise invalid output. Extract tries a fixed,
// ordered list of strategies and validates the first candidate it finds.
package extractor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phambaophuc/image-generator/internal/apperrs"
)

type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeInvalid  Outcome = "invalid"
)

const (
	// MinPayloadLength is the shortest cleaned payload accepted as an image.
	MinPayloadLength = 1000

	bareStringMinLength = 100
	decodeProbeLength   = 100
)

// Result is the outcome of one extraction. Payload is set only when Outcome is
// OutcomeFound. Diagnostic is for logs and error messages only.
type Result struct {
	Outcome    Outcome `json:"outcome"`
	Payload    string  `json:"-"`
	Strategy   string  `json:"strategy,omitempty"`
	Diagnostic string  `json:"diagnostic"`
}

func (r Result) Found() bool {
	return r.Outcome == OutcomeFound
}

// Err maps a non-found result onto the generation error kinds.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeFound:
		return nil
	case OutcomeInvalid:
		return fmt.Errorf("%w: %s", apperrs.ErrInvalidImageData, r.Diagnostic)
	default:
		return fmt.Errorf("%w: %s", apperrs.ErrMalformedPayload, r.Diagnostic)
	}
}

// Decode returns the raw image bytes of a found payload.
func (r Result) Decode() ([]byte, error) {
	if !r.Found() {
		return nil, r.Err()
	}
	data, err := base64.StdEncoding.DecodeString(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return data, nil
}

// Extract locates, cleans and validates an image payload in rawText. It never
// fails on malformed input; every problem is reported through the Result.
func Extract(rawText string) Result {
	if strings.TrimSpace(rawText) == "" {
		return Result{Outcome: OutcomeNotFound, Diagnostic: "empty response body"}
	}

	var doc any
	if err := json.Unmarshal([]byte(rawText), &doc); err != nil {
		doc = nil
	}

	for _, s := range strategies {
		candidate, ok := s.find(rawText, doc)
		if !ok {
			continue
		}
		return validate(s.name, clean(candidate))
	}

	return Result{
		Outcome:    OutcomeNotFound,
		Diagnostic: fmt.Sprintf("no strategy matched a %d character body", len(rawText)),
	}
}

func validate(strategy, candidate string) Result {
	invalid := func(format string, args ...any) Result {
		return Result{
			Outcome:    OutcomeInvalid,
			Strategy:   strategy,
			Diagnostic: strategy + ": " + fmt.Sprintf(format, args...),
		}
	}

	if len(candidate) < MinPayloadLength {
		return invalid("too short (%d < %d characters)", len(candidate), MinPayloadLength)
	}
	if !base64Payload.MatchString(candidate) {
		return invalid("bad alphabet")
	}
	if _, err := base64.StdEncoding.DecodeString(candidate[:decodeProbeLength]); err != nil {
		return invalid("decode failed: %v", err)
	}

	return Result{
		Outcome:    OutcomeFound,
		Payload:    candidate,
		Strategy:   strategy,
		Diagnostic: fmt.Sprintf("%s: %d characters", strategy, len(candidate)),
	}
}

// clean drops a leading data-URL prefix and every whitespace character.
func clean(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if dataURLPrefix.MatchString(candidate) {
		candidate = candidate[strings.IndexByte(candidate, ',')+1:]
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, candidate)
}
