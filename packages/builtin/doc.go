// Package builtin provides the functions callable from command templates.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(), date(layout): current time, RFC 3339 or a Go layout
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - random(min, max), randomString(length): random values
//   - base64(value), base64Decode(value): base64 encoding
//   - sha256(value), md5(value): hex digests
//   - urlEncode(value), urlDecode(value): query escaping
//
// Functions are invoked as {{ name(args) }} inside a curl command.
package builtin
