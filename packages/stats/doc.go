// Package stats aggregates latency and outcome counts for repeated sends.
//
// Latencies are kept in an HDR histogram with microsecond precision from
// 1µs to 60s, so percentiles stay accurate for any number of samples
// without storing them. WriteFile exports a Summary as JSON or in the
// Prometheus text format.
package stats
