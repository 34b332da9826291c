package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatHTTP    = "http"
)

// Formats lists the accepted values for New.
var Formats = []string{FormatConsole, FormatJSON, FormatHTTP}

type Formatter interface {
	FormatHeader(version string)
	FormatRequest(req *parser.ParsedRequest)
	FormatResponse(resp *http.Response)
	FormatSummary(summary *stats.Summary)
	FormatHistory(entries []history.Entry)
	FormatError(err error)
}

// Flushable is implemented by formatters that buffer output.
type Flushable interface {
	Flush() error
}

// Options are shared by every formatter. Not every formatter uses all of them.
type Options struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
}

// New returns the formatter registered under format.
func New(format string, opts Options) (Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatConsole:
		copts := []ConsoleOption{WithVerbose(opts.Verbose), WithNoColor(opts.NoColor)}
		if opts.Writer != nil {
			copts = append(copts, WithWriter(opts.Writer))
		}
		return NewConsoleFormatter(copts...), nil
	case FormatJSON:
		var jopts []JSONOption
		if opts.Writer != nil {
			jopts = append(jopts, JSONWithWriter(opts.Writer))
		}
		return NewJSONFormatter(jopts...), nil
	case FormatHTTP:
		var hopts []HTTPOption
		if opts.Writer != nil {
			hopts = append(hopts, HTTPWithWriter(opts.Writer))
		}
		return NewHTTPFormatter(hopts...), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (expected one of %s)", format, strings.Join(Formats, ", "))
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var (
	_ Formatter = (*ConsoleFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*HTTPFormatter)(nil)
	_ Flushable = (*JSONFormatter)(nil)
)
