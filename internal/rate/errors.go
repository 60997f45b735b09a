package rate

import "errors"

var (
	// ErrRateLimited is returned by Consume when the window budget is spent.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable wraps backend faults from the Redis limiter.
	ErrUnavailable = errors.New("rate limiter unavailable")
)
