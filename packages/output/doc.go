// Package output renders parsed requests, responses, load summaries and
// history entries.
//
// Supported output formats:
//   - console: human-readable colored terminal output
//   - json: machine-readable JSON, written once on Flush
//   - http: a .http request file
//
// Each formatter implements Formatter. Formats that accumulate before
// writing also implement Flushable.
package output
