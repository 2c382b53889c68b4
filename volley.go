// Package volley is a concurrent HTTP load generator.
// It issues a configurable number of requests against a target with bounded
// parallelism, times each request, and reports latency and status statistics
// in fixed-size batches. Requests are produced lazily, either by repeating a
// single URL or by streaming rows from a CSV file, so volley runs in constant
// memory regardless of how many requests it sends.
package volley
