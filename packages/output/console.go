package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
	"github.com/fatih/color"
	"github.com/tidwall/pretty"
)

// bodyPreviewLimit caps non-verbose response bodies.
const bodyPreviewLimit = 2048

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("curlspec"), version)
}

func (f *ConsoleFormatter) FormatRequest(req *parser.ParsedRequest) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", methodColor(req.Method())(req.Method()), bold(req.URL()))

	for _, h := range req.Headers() {
		fmt.Fprintf(f.writer, "  %s %s\n", cyan(h.Name+":"), h.Value)
	}

	if auth, ok := req.Auth(); ok {
		fmt.Fprintf(f.writer, "  %s %s\n", faint("auth:"), auth.Username)
	}

	var flags []string
	if req.FollowRedirects() {
		flags = append(flags, "follow-redirects")
	}
	if req.Insecure() {
		flags = append(flags, "insecure")
	}
	if len(flags) > 0 {
		fmt.Fprintf(f.writer, "  %s %s\n", faint("flags:"), strings.Join(flags, ", "))
	}

	if body, ok := req.BodyForSending(); ok {
		kind := "raw"
		if req.IsForm() {
			kind = "form"
		}
		fmt.Fprintf(f.writer, "\n%s\n", faint("body ("+kind+"):"))
		f.writeBody([]byte(body), true)
	}

	if ignored := req.IgnoredFlags(); len(ignored) > 0 {
		fmt.Fprintf(f.writer, "\n%s %s\n", yellow("ignored:"), strings.Join(ignored, " "))
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s %s\n", statusColor(resp.StatusCode)(resp.Status), faint(fmt.Sprintf("(%dms)", resp.DurationMs())))

	if f.verbose {
		for _, name := range sortedKeys(resp.Headers) {
			fmt.Fprintf(f.writer, "  %s %s\n", cyan(name+":"), resp.Headers[name])
		}
	}

	if len(resp.Body) == 0 {
		return
	}
	fmt.Fprintln(f.writer)
	f.writeBody(resp.Body, resp.IsJSON())
}

func (f *ConsoleFormatter) writeBody(body []byte, maybeJSON bool) {
	out := body
	if maybeJSON && looksLikeJSON(body) {
		out = pretty.Pretty(body)
		if !color.NoColor {
			out = pretty.Color(out, nil)
		}
	}
	if !f.verbose && len(out) > bodyPreviewLimit {
		fmt.Fprintf(f.writer, "%s\n... (%d more bytes, use --verbose)\n", out[:bodyPreviewLimit], len(out)-bodyPreviewLimit)
		return
	}
	fmt.Fprintln(f.writer, strings.TrimRight(string(out), "\n"))
}

func (f *ConsoleFormatter) FormatSummary(s *stats.Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Summary"))
	fmt.Fprintf(f.writer, "Requests: ")
	if s.Succeeded > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d ok", s.Succeeded)))
	}
	if s.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", s.Failed)))
	}
	if s.Errored > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d errors", s.Errored)))
	}
	fmt.Fprintf(f.writer, "%d total\n", s.Total)
	fmt.Fprintf(f.writer, "Rate:     %.1f req/s (%.1f%% success)\n", s.RPS, s.SuccessRate)
	fmt.Fprintf(f.writer, "Latency:  min %s  p50 %s  p90 %s  p95 %s  p99 %s  max %s\n",
		ms(s.Min), ms(s.P50), ms(s.P90), ms(s.P95), ms(s.P99), ms(s.Max))
	fmt.Fprintf(f.writer, "          mean %s  stddev %s\n", ms(s.Mean), ms(s.StdDev))
	if len(s.StatusCodes) > 0 {
		parts := make([]string, len(s.StatusCodes))
		for i, sc := range s.StatusCodes {
			parts[i] = statusColor(sc.Code)(fmt.Sprintf("%d", sc.Code)) + fmt.Sprintf("×%d", sc.Count)
		}
		fmt.Fprintf(f.writer, "Status:   %s\n", strings.Join(parts, "  "))
	}
	fmt.Fprintf(f.writer, "Time:     %dms\n", s.Duration.Milliseconds())
}

func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	faint := color.New(color.Faint).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if len(entries) == 0 {
		fmt.Fprintln(f.writer, faint("no history"))
		return
	}
	for _, e := range entries {
		outcome := statusColor(e.Status)(fmt.Sprintf("%d", e.Status))
		if e.Error != "" {
			outcome = red("ERR")
		}
		fmt.Fprintf(f.writer, "%s  %s  %s  %-7s %s %s\n",
			faint(shortID(e.ID)),
			e.SentAt.Local().Format("2006-01-02 15:04:05"),
			outcome,
			methodColor(e.Method)(e.Method),
			e.URL,
			faint(fmt.Sprintf("(%dms)", e.DurationMs)),
		)
		if f.verbose {
			if e.Error != "" {
				fmt.Fprintf(f.writer, "    %s\n", red(e.Error))
			}
			fmt.Fprintf(f.writer, "    %s\n", faint(oneLine(e.Command)))
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func methodColor(method string) func(a ...any) string {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	case "POST":
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case "PUT", "PATCH":
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case "DELETE":
		return color.New(color.FgRed, color.Bold).SprintFunc()
	default:
		return color.New(color.Bold).SprintFunc()
	}
}

func statusColor(code int) func(a ...any) string {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case code >= 400:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case code >= 300:
		return color.New(color.FgCyan, color.Bold).SprintFunc()
	case code >= 200:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.Faint).SprintFunc()
	}
}

func ms(d time.Duration) string {
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func looksLikeJSON(b []byte) bool {
	trimmed := strings.TrimSpace(string(b))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
