package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const metricPrefix = "curlspec_"

// WritePrometheus writes s in the Prometheus text exposition format. labels
// are attached to every sample.
func WritePrometheus(w io.Writer, s *Summary, labels map[string]string) error {
	now := time.Now().UnixMilli()
	base := formatLabels(labels, "", "")
	ew := &errWriter{w: w}

	ew.metric("requests_total", "counter", "Total number of HTTP requests made")
	ew.printf("%srequests_total%s %d %d\n", metricPrefix, base, s.Total, now)
	ew.metric("requests_succeeded_total", "counter", "Requests answered with a status below 400")
	ew.printf("%srequests_succeeded_total%s %d %d\n", metricPrefix, base, s.Succeeded, now)
	ew.metric("requests_failed_total", "counter", "Requests answered with a status of 400 or above")
	ew.printf("%srequests_failed_total%s %d %d\n", metricPrefix, base, s.Failed, now)
	ew.metric("requests_errored_total", "counter", "Requests that got no response")
	ew.printf("%srequests_errored_total%s %d %d\n", metricPrefix, base, s.Errored, now)
	ew.metric("requests_per_second", "gauge", "Achieved request rate")
	ew.printf("%srequests_per_second%s %.2f %d\n", metricPrefix, base, s.RPS, now)

	ew.metric("request_duration_ms", "gauge", "Request duration in milliseconds")
	quantiles := []struct {
		name  string
		value time.Duration
	}{
		{"min", s.Min},
		{"0.50", s.P50},
		{"0.90", s.P90},
		{"0.95", s.P95},
		{"0.99", s.P99},
		{"max", s.Max},
		{"avg", s.Mean},
	}
	for _, q := range quantiles {
		ew.printf("%srequest_duration_ms%s %.2f %d\n", metricPrefix, formatLabels(labels, "quantile", q.name), millis(q.value), now)
	}

	if len(s.StatusCodes) > 0 {
		ew.metric("requests_by_status_total", "counter", "Requests by HTTP status code")
		for _, sc := range s.StatusCodes {
			ew.printf("%srequests_by_status_total%s %d %d\n", metricPrefix, formatLabels(labels, "status", fmt.Sprint(sc.Code)), sc.Count, now)
		}
	}
	return ew.err
}

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(s)
}

// WriteFile writes s to path, as JSON when the extension is .json and in
// the Prometheus text format otherwise.
func WriteFile(path string, s *Summary, labels map[string]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create metrics file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = WriteJSON(f, s)
	} else {
		err = WritePrometheus(f, s, labels)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return err
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// formatLabels renders {k="v",...} in key order, plus one extra pair when
// extraKey is set.
func formatLabels(labels map[string]string, extraKey, extraValue string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=\"%s\"", k, sanitizeLabel(labels[k])))
	}
	if extraKey != "" {
		pairs = append(pairs, fmt.Sprintf("%s=\"%s\"", extraKey, sanitizeLabel(extraValue)))
	}
	if len(pairs) == 0 {
		return ""
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// sanitizeLabel makes a string safe for use as a Prometheus label value
func sanitizeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// errWriter keeps the first write error so callers check once.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) metric(name, kind, help string) {
	e.printf("# HELP %s%s %s\n", metricPrefix, name, help)
	e.printf("# TYPE %s%s %s\n", metricPrefix, name, kind)
}
