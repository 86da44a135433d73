package sfl_http

import "errors"

// Failure taxonomy for a fetch unit. Callers must treat every one of
// these as "skip this player, continue the batch", never as fatal.
var (
	// ErrNotFound: the upstream answered with a non-retryable 4xx.
	ErrNotFound = errors.New("resource not found upstream")

	// ErrRateLimited: the retry budget was exhausted under 429s. Also a
	// signal the pacing controller should widen the inter-request wait.
	ErrRateLimited = errors.New("rate limited after retries")

	// ErrUnavailable: timeouts or connection errors exhausted the
	// retry budget.
	ErrUnavailable = errors.New("upstream unavailable")
)
