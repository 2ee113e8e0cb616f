// Package retry wraps calls whose transient failure should not abort
// the message pipeline: chatbot resolution, blacklist checks, welcome
// delivery, flow retrieval.
package retry

import "time"

// Notify is invoked after each failed attempt. Logging is the caller's
// concern, not this package's.
type Notify func(attempt int, err error)

// Do invokes op up to attempts times with a fixed delay between
// attempts, returning the first success or the last error. No jitter,
// no exponential growth; the storage reconnect path has its own
// backoff.
func Do[T any](attempts int, delay time.Duration, op func() (T, error), notify Notify) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if notify != nil {
			notify(attempt, err)
		}
		if attempt < attempts {
			time.Sleep(delay)
		}
	}

	return zero, lastErr
}
