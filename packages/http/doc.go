// Package http sends parsed curl commands.
//
// It sits downstream of the parser and wraps the standard library's http
// package with:
//   - conversion from parser.ParsedRequest (FromParsed, ErrConversion)
//   - clients configured from the request's insecure and redirect flags
//   - configurable timeouts, proxy and default headers
//   - an optional token bucket rate limit shared by all sends
//   - response helpers, including gjson path selection on the body
package http
