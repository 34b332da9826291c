package parser

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Header is a single request header in command order.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BasicAuth holds the credentials given with -u.
type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ParsedRequest is the immutable result of parsing a curl command. All
// defaulting happens once in the builder; accessors return copies.
type ParsedRequest struct {
	method          string
	rawURL          string
	url             *url.URL
	headers         []Header
	body            []string
	form            bool
	auth            *BasicAuth
	insecure        bool
	followRedirects bool
	ignored         []string
}

func (r *ParsedRequest) Method() string {
	return r.method
}

// URL returns the normalized URL, or the raw URL string when URL parsing
// was disabled.
func (r *ParsedRequest) URL() string {
	return r.rawURL
}

// ParsedURL returns a copy of the structured URL. It is nil when URL
// parsing was disabled.
func (r *ParsedRequest) ParsedURL() *url.URL {
	if r.url == nil {
		return nil
	}
	u := *r.url
	if r.url.User != nil {
		user := *r.url.User
		u.User = &user
	}
	return &u
}

func (r *ParsedRequest) Headers() []Header {
	out := make([]Header, len(r.headers))
	copy(out, r.headers)
	return out
}

// Header looks a header up by case-insensitive name.
func (r *ParsedRequest) Header(name string) (string, bool) {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Body returns the raw body fragments, one per data flag.
func (r *ParsedRequest) Body() []string {
	if len(r.body) == 0 {
		return nil
	}
	out := make([]string, len(r.body))
	copy(out, r.body)
	return out
}

// IsForm reports whether every body fragment is made of key=value pairs.
func (r *ParsedRequest) IsForm() bool {
	return r.form
}

// BodyForSending materializes the body. Form bodies are url-encoded pair by
// pair and joined with '&'; anything else is concatenated as given.
func (r *ParsedRequest) BodyForSending() (string, bool) {
	if len(r.body) == 0 {
		return "", false
	}
	if !r.form {
		return strings.Join(r.body, ""), true
	}

	pairs := make([]string, 0, len(r.body))
	for _, fragment := range r.body {
		for _, pair := range strings.Split(fragment, "&") {
			key, value, _ := strings.Cut(pair, "=")
			pairs = append(pairs, formEscape(key)+"="+formEscape(value))
		}
	}
	return strings.Join(pairs, "&"), true
}

// formEscape canonicalizes one form component. Already encoded input is
// decoded first so it is not encoded twice.
func formEscape(s string) string {
	if decoded, err := url.QueryUnescape(s); err == nil {
		s = decoded
	}
	return url.QueryEscape(s)
}

func (r *ParsedRequest) Auth() (BasicAuth, bool) {
	if r.auth == nil {
		return BasicAuth{}, false
	}
	return *r.auth, true
}

func (r *ParsedRequest) Insecure() bool {
	return r.insecure
}

func (r *ParsedRequest) FollowRedirects() bool {
	return r.followRedirects
}

// IgnoredFlags lists unsupported flags found in the command, in order.
func (r *ParsedRequest) IgnoredFlags() []string {
	if len(r.ignored) == 0 {
		return nil
	}
	out := make([]string, len(r.ignored))
	copy(out, r.ignored)
	return out
}

type requestJSON struct {
	Method          string     `json:"method"`
	URL             string     `json:"url"`
	Headers         []Header   `json:"headers"`
	Body            []string   `json:"body,omitempty"`
	Auth            *BasicAuth `json:"auth,omitempty"`
	Insecure        bool       `json:"insecure"`
	FollowRedirects bool       `json:"followRedirects"`
	IgnoredFlags    []string   `json:"ignoredFlags,omitempty"`
}

func (r *ParsedRequest) MarshalJSON() ([]byte, error) {
	out := requestJSON{
		Method:          r.method,
		URL:             r.rawURL,
		Headers:         r.Headers(),
		Body:            r.Body(),
		Insecure:        r.insecure,
		FollowRedirects: r.followRedirects,
		IgnoredFlags:    r.IgnoredFlags(),
	}
	if auth, ok := r.Auth(); ok {
		out.Auth = &auth
	}
	return json.Marshal(out)
}
