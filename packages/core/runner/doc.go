// Package runner sends one request repeatedly and aggregates the outcome.
//
// It provides functionality for:
//   - Repeating a request a fixed number of times or for a duration
//   - Bounded concurrency with a semaphore
//   - Retrying network errors and transient status codes
//   - Latency and status statistics through package stats
//
// Rate limiting is the client's job; see http.WithRateLimit.
package runner
