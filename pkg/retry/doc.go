// Package retry provides backoff and retry logic for transient failures,
// used mainly around listing navigation where a slow or flaky connection
// is the likely cause.
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return navigateToListing(username)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// The default predicate retries navigation errors and untyped errors;
// auth, validation, and per-item extraction errors are final.
package retry
