package reanalyze

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/Shima-Rai/melixa/internal/core/ports"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

// RetryExtractor decorates an extractor with bounded retry and exponential
// backoff. The first delay is jittered into [backoff, 2*backoff) so a bulk
// ingest against a struggling service does not retry in lockstep; each
// further attempt doubles the previous delay. Only the unavailable and
// rejected conditions are retried; anything else fails immediately.
type RetryExtractor struct {
	inner       ports.Extractor
	maxAttempts int
	backoff     time.Duration
	logger      zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

var _ ports.Extractor = (*RetryExtractor)(nil)

// NewRetryExtractor wraps inner. Non-positive attempts or backoff fall back
// to the defaults (3 attempts, 500ms initial delay).
func NewRetryExtractor(inner ports.Extractor, maxAttempts int, backoff time.Duration, logger zerolog.Logger) *RetryExtractor {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if backoff <= 0 {
		backoff = defaultInitialBackoff
	}
	return &RetryExtractor{
		inner:       inner,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		logger:      logger.With().Str("component", "retry-extractor").Logger(),
		sleep:       sleepWithContext,
	}
}

// Extract attempts the wrapped extraction up to the configured bound.
func (r *RetryExtractor) Extract(ctx context.Context, audioPath string) (ports.Prediction, error) {
	// #nosec G404 -- jitter spacing, not security-sensitive
	delay := r.backoff + time.Duration(rand.Int63n(int64(r.backoff)))

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		pred, err := r.inner.Extract(ctx, audioPath)
		if err == nil {
			return pred, nil
		}
		if !ports.RetryableExtraction(err) {
			return ports.Prediction{}, err
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn().
			Str("asset", audioPath).
			Int("attempt", attempt).
			Int("max_attempts", r.maxAttempts).
			Dur("backoff", delay).
			Err(err).
			Msg("extraction failed, backing off")

		if err := r.sleep(ctx, delay); err != nil {
			return ports.Prediction{}, fmt.Errorf("extraction retry canceled: %w", err)
		}
		delay *= 2
	}

	return ports.Prediction{}, fmt.Errorf("extraction failed after %d attempts: %w", r.maxAttempts, lastErr)
}
