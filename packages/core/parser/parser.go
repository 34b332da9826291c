package parser

import (
	"github.com/abdul-hamid-achik/curlspec/packages/core/template"
)

type options struct {
	parseURL bool
	renderer *template.Renderer
}

// Option configures Parse and Load.
type Option func(*options)

// WithURLParsing toggles structured URL parsing. When disabled the URL is
// kept verbatim, which keeps unresolved placeholders intact.
func WithURLParsing(enabled bool) Option {
	return func(o *options) {
		o.parseURL = enabled
	}
}

// WithRenderer makes Load render through a caller-owned renderer so compiled
// templates are reused across calls.
func WithRenderer(r *template.Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

func newOptions(opts []Option) *options {
	o := &options{parseURL: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parse parses a curl command with no templating.
func Parse(input string, opts ...Option) (*ParsedRequest, error) {
	return parse(input, newOptions(opts))
}

// Load renders {{ placeholders }} in input against vars and parses the
// result. A nil vars map skips rendering entirely.
func Load(input string, vars map[string]any, opts ...Option) (*ParsedRequest, error) {
	o := newOptions(opts)
	if vars == nil {
		return parse(input, o)
	}

	var (
		rendered string
		err      error
	)
	if o.renderer != nil {
		rendered, err = o.renderer.Render(input, vars)
	} else {
		rendered, err = template.Render(input, vars)
	}
	if err != nil {
		return nil, err
	}
	return parse(rendered, o)
}

func parse(input string, o *options) (*ParsedRequest, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return build(tokens, o)
}
