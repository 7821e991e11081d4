package itinerary

import (
	"errors"
	"fmt"
)

var (
	// ErrGenerationFailed covers transport failures, API errors (rate limits,
	// bad credentials), timeouts and empty responses. Remedy: retry.
	ErrGenerationFailed = errors.New("itinerary generation failed")
	// ErrInvalidItineraryFormat means the model answered but the payload is not a
	// valid plan. Remedy: regenerate.
	ErrInvalidItineraryFormat = errors.New("invalid itinerary format")
	// ErrServiceUnavailable means the generator was never configured (no API key).
	ErrServiceUnavailable = errors.New("itinerary service unavailable")

	ErrGenerationInProgress = errors.New("a generation is already in progress")
	ErrSessionNotIdle       = errors.New("session must be reset before submitting again")
	ErrSessionNotFound      = errors.New("session not found")
)

type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindGenerationFailed       ErrorKind = "GenerationFailed"
	KindInvalidItineraryFormat ErrorKind = "InvalidItineraryFormat"
	KindServiceUnavailable     ErrorKind = "ServiceUnavailable"
)

// KindOf classifies an error returned by the generation pipeline.
// Unclassified errors count as generation failures.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidItineraryFormat):
		return KindInvalidItineraryFormat
	case errors.Is(err, ErrServiceUnavailable):
		return KindServiceUnavailable
	default:
		return KindGenerationFailed
	}
}

// FormatError is returned when the model output cannot be turned into a plan.
// Raw keeps the offending payload for diagnostics; it is never rendered.
type FormatError struct {
	Path   string
	Reason string
	Raw    string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", ErrInvalidItineraryFormat, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidItineraryFormat, e.Reason)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrInvalidItineraryFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func generationFailed(err error) error {
	return fmt.Errorf("%w: %w", ErrGenerationFailed, err)
}
