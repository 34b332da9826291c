// Package parser turns a shell-style curl command into a ParsedRequest.
//
// Parsing runs as a straight pipeline:
//   - optional template rendering of {{ placeholders }} (see package template)
//   - tokenization into flags, positional arguments and comments
//   - a semantic pass that buckets flags and applies method, header,
//     body and auth rules
//
// Recognized flags are -X/--request, -H/--header, -d/--data (and the
// --data-raw, --data-ascii, --data-binary variants), -u/--user,
// -L/--location, -k/--insecure plus the -A, -e and -b header shorthands.
// Other flags are ignored and reported through ParsedRequest.IgnoredFlags.
//
// The package performs no I/O and keeps no global state, so independent
// calls may run concurrently.
package parser
