// Package template renders {{ placeholder }} expressions in a curl command
// before it is parsed.
//
// An expression is either a dotted path into the rendering context
// ({{ user.name }}, {{ ids.0 }}) or a builtin function call
// ({{ uuid() }}, {{ base64("a:b") }}). Unlike a lenient resolver, rendering
// is strict: a missing variable or an unclosed placeholder is an error.
//
// Single-shot callers use Render. Callers that render many commands own a
// Renderer, which caches compiled templates and is safe for concurrent use.
package template
