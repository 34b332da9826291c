package http

import (
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
)

// ErrConversion is returned when a parsed request cannot be turned into a
// sendable request. It is distinct from every parse-time error.
var ErrConversion = errors.New("request conversion failed")

// Request is a sendable request. Headers keep command order.
type Request struct {
	Method          string
	URL             string
	Headers         []parser.Header
	Body            string
	HasBody         bool
	Insecure        bool
	FollowRedirects bool
	Timeout         time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

// SetHeader replaces every header named key, or appends one.
func (r *Request) SetHeader(key, value string) *Request {
	out := r.Headers[:0]
	for _, h := range r.Headers {
		if !strings.EqualFold(h.Name, key) {
			out = append(out, h)
		}
	}
	r.Headers = append(out, parser.Header{Name: key, Value: value})
	return r
}

func (r *Request) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, key) {
			return h.Value
		}
	}
	return ""
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	r.HasBody = true
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// FromParsed converts a parsed command into a Request. URLs kept verbatim
// by parser.WithURLParsing(false) are parsed and validated here, so a
// placeholder that was never resolved surfaces as ErrConversion.
func FromParsed(p *parser.ParsedRequest) (*Request, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil request", ErrConversion)
	}

	u := p.ParsedURL()
	if u == nil {
		raw := p.URL()
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		parsed, err := neturl.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConversion, err)
		}
		u = parsed
	}
	if err := ValidateURL(u.String()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversion, err)
	}

	r := NewRequest(p.Method(), u.String())
	r.Headers = p.Headers()
	if body, ok := p.BodyForSending(); ok {
		r.SetBody(body)
	}
	r.Insecure = p.Insecure()
	r.FollowRedirects = p.FollowRedirects()
	return r, nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme.
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
