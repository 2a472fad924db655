package ports

import (
	"context"
	"errors"
	"fmt"
)

// ErrExtractionUnavailable indicates the remote feature extractor could not
// be reached or timed out. Safe to retry.
var ErrExtractionUnavailable = errors.New("feature extractor unavailable")

// ErrExtractionRejected indicates the extractor answered with an explicit
// error for the asset. Retryable up to a bound, then a permanent failure.
var ErrExtractionRejected = errors.New("feature extraction rejected")

// UnavailableError wraps the transport failure behind ErrExtractionUnavailable.
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrExtractionUnavailable, e.Cause)
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

func (e *UnavailableError) Is(target error) bool { return target == ErrExtractionUnavailable }

// RejectedError carries the extractor's status and detail message.
type RejectedError struct {
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: status %d", ErrExtractionRejected, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrExtractionRejected, e.Status, e.Detail)
}

func (e *RejectedError) Is(target error) bool { return target == ErrExtractionRejected }

// RetryableExtraction reports whether an extraction failure is worth retrying.
func RetryableExtraction(err error) bool {
	return errors.Is(err, ErrExtractionUnavailable) || errors.Is(err, ErrExtractionRejected)
}

// Prediction is the raw payload of the mood classification service. The
// schema shifts between model versions: features may be keyed positionally
// (feature_0, feature_1, ...) or semantically (tempo, energy, ...), and the
// mood distribution may arrive under either Percentages or Probabilities.
// Normalization into the canonical record shape happens in the ingest
// package; the raw body is kept for debugging and fallback.
type Prediction struct {
	Mood          string             `json:"mood"`
	Confidence    *float64           `json:"confidence,omitempty"`
	Percentages   map[string]float64 `json:"mood_percentages,omitempty"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Features      map[string]float64 `json:"audio_features,omitempty"`

	Raw []byte `json:"-"`
}

// Extractor is the remote mood/feature extraction collaborator. Extract may
// block for tens of seconds; implementations enforce a per-call timeout and
// return *UnavailableError or *RejectedError for the two failure conditions.
type Extractor interface {
	Extract(ctx context.Context, audioPath string) (Prediction, error)
}
