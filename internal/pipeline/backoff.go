package pipeline

import "time"

// BackoffPolicy returns how long to wait after a failed attempt before
// the next one. attempt is zero-based.
type BackoffPolicy func(attempt int) time.Duration

// DefaultBackoff waits 1s after the first failure and 2s more for each
// attempt after that.
func DefaultBackoff(attempt int) time.Duration {
	return time.Second + time.Duration(attempt)*2*time.Second
}
