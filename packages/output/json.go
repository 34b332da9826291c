package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/history"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
	"github.com/tidwall/gjson"
)

// JSONOutput is the document written by JSONFormatter.Flush.
type JSONOutput struct {
	Version   string                  `json:"version,omitempty"`
	Requests  []*parser.ParsedRequest `json:"requests,omitempty"`
	Responses []JSONResponse          `json:"responses,omitempty"`
	Summary   *stats.Summary          `json:"summary,omitempty"`
	History   []history.Entry         `json:"history,omitempty"`
	Errors    []string                `json:"errors,omitempty"`
	Time      string                  `json:"time"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Proto      string            `json:"proto,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       json.RawMessage   `json:"body,omitempty"`
	Duration   float64           `json:"duration"`
}

// JSONFormatter collects everything it is given and writes one document on
// Flush.
type JSONFormatter struct {
	writer io.Writer
	out    JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatHeader(version string) {
	f.out.Version = version
}

func (f *JSONFormatter) FormatRequest(req *parser.ParsedRequest) {
	f.out.Requests = append(f.out.Requests, req)
}

func (f *JSONFormatter) FormatResponse(resp *http.Response) {
	f.out.Responses = append(f.out.Responses, JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Proto:      resp.Proto,
		Headers:    resp.Headers,
		Body:       rawBody(resp.Body),
		Duration:   float64(resp.Duration.Microseconds()) / 1000,
	})
}

func (f *JSONFormatter) FormatSummary(summary *stats.Summary) {
	f.out.Summary = summary
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry) {
	f.out.History = append(f.out.History, entries...)
}

func (f *JSONFormatter) FormatError(err error) {
	f.out.Errors = append(f.out.Errors, err.Error())
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush() error {
	f.out.Time = time.Now().Format(time.RFC3339)
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.out)
}

// rawBody embeds JSON bodies as-is and anything else as a JSON string.
func rawBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if gjson.ValidBytes(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return encoded
}
