package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tanahair/water-harvest/internal/domain"
	"github.com/tanahair/water-harvest/internal/observability"
)

// userAgent mirrors what the portals expect from a browser; some of them
// reject default Go client strings.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FetchError is a typed fetch failure. Kind is KindPermanentHTTP for
// definitive 4xx responses and KindTransientNetwork when retries were
// exhausted on network errors, timeouts, 429s, or 5xx responses.
type FetchError struct {
	Kind     domain.FailureKind
	Status   int // last HTTP status, 0 when the request never completed
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("http %d after %d attempt(s)", e.Status, e.Attempts)
	}
	return fmt.Sprintf("fetch failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs bounded-retry GETs for (entity, source) pairs. It knows
// nothing about table structure; it returns raw document bytes or a typed
// failure.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxAttempts int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewFetcher creates a Fetcher. timeout applies per attempt, not per chain.
func NewFetcher(timeout time.Duration, maxAttempts int, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Fetcher{
		client:      &http.Client{},
		timeout:     timeout,
		maxAttempts: maxAttempts,
		logger:      logger,
		metrics:     metrics,
	}
}

// Fetch GETs rawURL (with optional query params), retrying transient failures
// up to the configured attempt limit. Permanent 4xx responses surface
// immediately without retry.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	// Exponential backoff between attempts: 200ms doubling, capped at 2s.
	backoff := 200 * time.Millisecond
	const maxBackoff = 2 * time.Second

	var lastErr error
	var lastStatus int

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		if attempt > 1 {
			f.metrics.FetchRetries.Inc()
			if !sleepWithContext(ctx, backoff) {
				break
			}
			backoff = nextBackoff(backoff, maxBackoff)
		}

		body, status, err := f.doAttempt(ctx, rawURL)
		switch {
		case err == nil && status >= 200 && status < 300:
			return body, nil
		case err != nil:
			if ctx.Err() != nil {
				lastErr = ctx.Err()
				attempt = f.maxAttempts // no point continuing
			} else {
				lastErr = err
			}
			f.logger.Warn("fetch attempt failed", "url", rawURL, "attempt", attempt, "error", err)
		case status == http.StatusTooManyRequests || status >= 500:
			lastStatus = status
			lastErr = fmt.Errorf("http %d", status)
			f.logger.Warn("fetch got retryable status", "url", rawURL, "attempt", attempt, "status", status)
		default:
			// Definitive 4xx: retrying will not change the answer.
			return nil, &FetchError{
				Kind:     domain.KindPermanentHTTP,
				Status:   status,
				Attempts: attempt,
				Err:      fmt.Errorf("http %d", status),
			}
		}
	}

	return nil, &FetchError{
		Kind:     domain.KindTransientNetwork,
		Status:   lastStatus,
		Attempts: f.maxAttempts,
		Err:      lastErr,
	}
}

func (f *Fetcher) doAttempt(ctx context.Context, rawURL string) ([]byte, int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
