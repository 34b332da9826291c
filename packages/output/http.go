package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
)

var (
	urlPathPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/]+(/[^?#]*)?`)
	nonWordPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// HTTPFormatter writes requests as a .http file, one block per request.
// Responses, summaries and history have no .http form and are written as
// comments.
type HTTPFormatter struct {
	writer io.Writer
	count  int
}

type HTTPOption func(*HTTPFormatter)

func NewHTTPFormatter(opts ...HTTPOption) *HTTPFormatter {
	f := &HTTPFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func HTTPWithWriter(w io.Writer) HTTPOption {
	return func(f *HTTPFormatter) {
		f.writer = w
	}
}

func (f *HTTPFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "# generated by curlspec %s\n\n", version)
}

func (f *HTTPFormatter) FormatRequest(req *parser.ParsedRequest) {
	if f.count > 0 {
		fmt.Fprintln(f.writer)
	}
	f.count++
	fmt.Fprint(f.writer, ToHTTPFile(req))
}

func (f *HTTPFormatter) FormatResponse(resp *http.Response) {
	fmt.Fprintf(f.writer, "\n# %s %s (%dms)\n", resp.Proto, resp.Status, resp.DurationMs())
}

func (f *HTTPFormatter) FormatSummary(s *stats.Summary) {
	fmt.Fprintf(f.writer, "\n# %d requests, %d ok, %.1f req/s, p50 %s, p99 %s\n",
		s.Total, s.Succeeded, s.RPS, ms(s.P50), ms(s.P99))
}

func (f *HTTPFormatter) FormatHistory(entries []history.Entry) {
	for _, e := range entries {
		fmt.Fprintf(f.writer, "# %s %s %s -> %d\n", shortID(e.ID), e.Method, e.URL, e.Status)
	}
}

func (f *HTTPFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "# error: %v\n", err)
}

// ToHTTPFile renders one request block.
func ToHTTPFile(req *parser.ParsedRequest) string {
	var sb strings.Builder

	name := RequestName(req.URL(), req.Method())
	sb.WriteString("### ")
	sb.WriteString(name)
	sb.WriteString("\n")
	sb.WriteString("# @name ")
	sb.WriteString(name)
	sb.WriteString("\n")
	if req.Insecure() {
		sb.WriteString("# @insecure\n")
	}
	if req.FollowRedirects() {
		sb.WriteString("# @followRedirects\n")
	}
	if ignored := req.IgnoredFlags(); len(ignored) > 0 {
		sb.WriteString("# ignored: ")
		sb.WriteString(strings.Join(ignored, " "))
		sb.WriteString("\n")
	}

	sb.WriteString(req.Method())
	sb.WriteString(" ")
	sb.WriteString(req.URL())
	sb.WriteString("\n")

	for _, h := range req.Headers() {
		sb.WriteString(h.Name)
		sb.WriteString(": ")
		sb.WriteString(h.Value)
		sb.WriteString("\n")
	}

	if body, ok := req.BodyForSending(); ok {
		sb.WriteString("\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}

	return sb.String()
}

// RequestName derives a request name like get_users_42 from the method and
// URL path.
func RequestName(rawURL, method string) string {
	path := "/"
	if m := urlPathPattern.FindStringSubmatch(rawURL); len(m) > 1 && m[1] != "" {
		path = m[1]
	}

	path = strings.Trim(path, "/")
	if path == "" {
		path = "root"
	}
	return sanitizeName(strings.ToLower(method) + "_" + path)
}

func sanitizeName(name string) string {
	result := nonWordPattern.ReplaceAllString(name, "_")
	result = strings.Trim(result, "_")
	return strings.ToLower(result)
}
