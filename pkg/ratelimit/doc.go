// Package ratelimit provides a token bucket limiter used to pace
// per-permalink thread expansions during a scraping run. The bucket is
// sized from configuration (expansions per minute) and refilled wholesale
// once the period elapses, which matches the bursty shape of expansion
// work well enough without per-token accounting.
package ratelimit
