package parser

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	headerAccept        = "Accept"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerCookie        = "Cookie"
	headerReferer       = "Referer"
	headerUserAgent     = "User-Agent"

	defaultAccept   = "*/*"
	mimeFormEncoded = "application/x-www-form-urlencoded"
	defaultScheme   = "http://"
)

var standardMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
	"TRACE":   true,
	"CONNECT": true,
}

// Headers whose repeated values combine into a list instead of conflicting.
var listHeaders = map[string]bool{
	"accept":          true,
	"accept-encoding": true,
	"accept-language": true,
	"cache-control":   true,
	"cookie":          true,
	"forwarded":       true,
	"via":             true,
	"warning":         true,
	"link":            true,
	"prefer":          true,
	"vary":            true,
	"if-match":        true,
	"if-none-match":   true,
}

// buckets holds every flag occurrence by kind, in command order.
type buckets struct {
	methods  []Token
	headers  []Token
	data     []Token
	users    []Token
	urls     []Token
	location bool
	insecure bool
	ignored  []string
}

func collect(tokens []Token) *buckets {
	b := &buckets{}
	for _, t := range tokens {
		switch t.Kind {
		case TokenPositional:
			b.urls = append(b.urls, t)
			continue
		case TokenComment:
			continue
		}

		switch t.flag {
		case flagRequest:
			b.methods = append(b.methods, t)
		case flagHeader, flagUserAgent, flagReferer, flagCookie:
			b.headers = append(b.headers, t)
		case flagData:
			b.data = append(b.data, t)
		case flagUser:
			b.users = append(b.users, t)
		case flagURL:
			b.urls = append(b.urls, Token{Kind: TokenPositional, Value: t.Value, Pos: t.Pos})
		case flagLocation:
			b.location = true
		case flagInsecure:
			b.insecure = true
		default:
			b.ignored = append(b.ignored, t.Name)
		}
	}
	return b
}

type builder struct {
	opts    *options
	req     *ParsedRequest
	byName  map[string]int
	bodySet bool
}

// build applies the semantic rules to collected tokens. It never returns a
// partially built request.
func build(tokens []Token, opts *options) (*ParsedRequest, error) {
	b := collect(tokens)
	bd := &builder{
		opts:   opts,
		req:    &ParsedRequest{},
		byName: make(map[string]int),
	}

	steps := []func(*buckets) error{
		bd.url,
		bd.body,
		bd.method,
		bd.headers,
		bd.auth,
		bd.defaults,
	}
	for _, step := range steps {
		if err := step(b); err != nil {
			return nil, err
		}
	}

	bd.req.followRedirects = b.location
	bd.req.insecure = b.insecure
	bd.req.ignored = b.ignored
	return bd.req, nil
}

func (bd *builder) url(b *buckets) error {
	switch len(b.urls) {
	case 0:
		return newError(ErrMissingURL, -1, "no url found in curl command")
	case 1:
	default:
		second := b.urls[1]
		return newError(ErrDuplicateURL, second.Pos, "second url %q after %q", second.Value, b.urls[0].Value)
	}

	raw := b.urls[0].Value
	if !bd.opts.parseURL {
		bd.req.rawURL = raw
		return nil
	}

	if !strings.Contains(raw, "://") {
		raw = defaultScheme + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return newError(ErrInvalidURL, b.urls[0].Pos, "%v", err)
	}
	if u.Host == "" {
		return newError(ErrInvalidURL, b.urls[0].Pos, "url %q has no host", raw)
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	u.RawQuery = escapeQuery(u.RawQuery)
	bd.req.url = u
	bd.req.rawURL = u.String()
	return nil
}

func (bd *builder) body(b *buckets) error {
	if len(b.data) == 0 {
		return nil
	}
	bd.req.body = make([]string, len(b.data))
	form := true
	for i, t := range b.data {
		bd.req.body[i] = t.Value
		if !isFormFragment(t.Value) {
			form = false
		}
	}
	bd.req.form = form
	bd.bodySet = true
	return nil
}

func (bd *builder) method(b *buckets) error {
	if n := len(b.methods); n > 0 {
		last := b.methods[n-1]
		m := strings.ToUpper(strings.TrimSpace(last.Value))
		if !standardMethods[m] {
			return newError(ErrUnsupportedMethod, last.Pos, "%q", last.Value)
		}
		bd.req.method = m
		return nil
	}
	if bd.bodySet {
		bd.req.method = "POST"
		return nil
	}
	bd.req.method = "GET"
	return nil
}

func (bd *builder) headers(b *buckets) error {
	for _, t := range b.headers {
		var name, value string
		switch t.flag {
		case flagUserAgent:
			name, value = headerUserAgent, t.Value
		case flagReferer:
			name, value = headerReferer, t.Value
		case flagCookie:
			name, value = headerCookie, t.Value
		default:
			var err error
			name, value, err = splitHeader(t)
			if err != nil {
				return err
			}
		}
		if !validHeaderValue(value) {
			return newError(ErrHeaderFormat, t.Pos, "%s: value %q contains control characters", name, value)
		}
		if err := bd.addHeader(name, value, t.Pos); err != nil {
			return err
		}
	}
	return nil
}

func splitHeader(t Token) (string, string, error) {
	colon := strings.IndexByte(t.Value, ':')
	if colon < 0 {
		return "", "", newError(ErrHeaderFormat, t.Pos, "header %q has no ':' separator", t.Value)
	}
	name := strings.TrimSpace(t.Value[:colon])
	if !validHeaderName(name) {
		return "", "", newError(ErrHeaderFormat, t.Pos, "invalid header name %q", name)
	}
	rest := t.Value[colon+1:]
	start := colon + 1 + len(rest) - len(strings.TrimLeft(rest, " \t"))
	value, err := unescapeRaw(t.Value, start, t.raw)
	if err != nil {
		return "", "", err
	}
	return name, value, nil
}

// unescapeRaw returns s[from:] with Unescape applied to the single-quoted
// parts only. Everywhere else the lexer has resolved escapes already.
func unescapeRaw(s string, from int, raw []span) (string, error) {
	var sb strings.Builder
	at := from
	for _, r := range raw {
		start, end := max(r[0], at), r[1]
		if end <= start {
			continue
		}
		sb.WriteString(s[at:start])
		part, err := Unescape(s[start:end])
		if err != nil {
			return "", err
		}
		sb.WriteString(part)
		at = end
	}
	sb.WriteString(s[at:])
	return sb.String(), nil
}

func (bd *builder) addHeader(name, value string, pos int) error {
	key := strings.ToLower(name)
	idx, exists := bd.byName[key]
	if !exists {
		bd.byName[key] = len(bd.req.headers)
		bd.req.headers = append(bd.req.headers, Header{Name: name, Value: value})
		return nil
	}

	current := bd.req.headers[idx].Value
	if current == value {
		return nil
	}
	if !listHeaders[key] {
		return newError(ErrDuplicateHeader, pos, "%s: %q conflicts with %q", name, value, current)
	}

	sep := ", "
	if key == "cookie" {
		sep = "; "
	}
	bd.req.headers[idx].Value = current + sep + value
	return nil
}

func (bd *builder) auth(b *buckets) error {
	n := len(b.users)
	if n == 0 {
		return nil
	}
	last := b.users[n-1]
	user, pass, found := strings.Cut(last.Value, ":")
	if !found {
		return newError(ErrAuthFormat, last.Pos, "expected user:password")
	}
	bd.req.auth = &BasicAuth{Username: user, Password: pass}

	if _, ok := bd.byName[strings.ToLower(headerAuthorization)]; ok {
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return bd.addHeader(headerAuthorization, "Basic "+encoded, last.Pos)
}

func (bd *builder) defaults(_ *buckets) error {
	if _, ok := bd.byName[strings.ToLower(headerAccept)]; !ok {
		if err := bd.addHeader(headerAccept, defaultAccept, -1); err != nil {
			return err
		}
	}
	if bd.bodySet && bd.req.form {
		if _, ok := bd.byName[strings.ToLower(headerContentType)]; !ok {
			return bd.addHeader(headerContentType, mimeFormEncoded, -1)
		}
	}
	return nil
}

// isFormFragment reports whether s is one or more '&' separated key=value
// pairs and not a JSON document.
func isFormFragment(s string) bool {
	if s == "" || gjson.Valid(s) {
		return false
	}
	for _, pair := range strings.Split(s, "&") {
		key, _, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return false
		}
	}
	return true
}

// validHeaderValue rejects CR, LF and the other control bytes except tab.
func validHeaderValue(v string) bool {
	for i := 0; i < len(v); i++ {
		if c := v[i]; (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

// escapeQuery percent-encodes the bytes url.Parse lets through in a query
// but URL.String would escape in a path. Existing escapes are kept.
func escapeQuery(q string) string {
	const hex = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(q); i++ {
		c := q[i]
		if c > ' ' && c < 0x7f && strings.IndexByte("\"<>\\^`{|}", c) < 0 {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hex[c>>4])
		sb.WriteByte(hex[c&0x0f])
	}
	return sb.String()
}

// validHeaderName checks the RFC 7230 token grammar.
func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("!#$%&'*+-.^_`|~", c) >= 0:
		default:
			return false
		}
	}
	return true
}
