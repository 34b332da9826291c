package runner

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/core/parser"
	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender answers from a function and counts calls.
type fakeSender struct {
	calls atomic.Int64
	fn    func(call int64) (*http.Response, error)
}

func (f *fakeSender) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	n := f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fn(n)
}

func status(code int) func(int64) (*http.Response, error) {
	return func(int64) (*http.Response, error) {
		return &http.Response{StatusCode: code}, nil
	}
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(&fakeSender{fn: status(200)}, nil)
		assert.NotNil(t, r)
		assert.NotNil(t, r.config)
	})

	t.Run("with custom config", func(t *testing.T) {
		r := NewRunner(&fakeSender{fn: status(200)}, &Config{Repeat: 3, Concurrency: 2})
		assert.Equal(t, 3, r.config.Repeat)
		assert.Equal(t, 2, r.config.Concurrency)
	})
}

func TestRunner_SingleRequest(t *testing.T) {
	sender := &fakeSender{fn: status(201)}
	r := NewRunner(sender, nil)

	result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), sender.calls.Load())
	require.NotNil(t, result.First)
	assert.True(t, result.First.Passed)
	assert.Equal(t, 1, result.First.Attempts)
	assert.Equal(t, 201, result.First.Response.StatusCode)
	assert.Equal(t, int64(1), result.Summary.Total)
	assert.Equal(t, int64(1), result.Summary.Succeeded)
}

func TestRunner_Repeat(t *testing.T) {
	tests := []struct {
		name        string
		repeat      int
		concurrency int
		fn          func(int64) (*http.Response, error)
		succeeded   int64
		failed      int64
		errored     int64
	}{
		{name: "sequential", repeat: 5, concurrency: 1, fn: status(200), succeeded: 5},
		{name: "concurrent", repeat: 20, concurrency: 4, fn: status(200), succeeded: 20},
		{name: "error statuses", repeat: 3, concurrency: 2, fn: status(404), failed: 3},
		{
			name: "network errors", repeat: 4, concurrency: 2,
			fn:      func(int64) (*http.Response, error) { return nil, errors.New("connection refused") },
			errored: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{fn: tt.fn}
			var seen atomic.Int64
			r := NewRunner(sender, &Config{
				Repeat:      tt.repeat,
				Concurrency: tt.concurrency,
				OnResult:    func(*RequestResult) { seen.Add(1) },
			})

			result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
			require.NoError(t, err)

			assert.Equal(t, int64(tt.repeat), sender.calls.Load())
			assert.Equal(t, int64(tt.repeat), seen.Load())
			assert.Equal(t, int64(tt.repeat), result.Summary.Total)
			assert.Equal(t, tt.succeeded, result.Summary.Succeeded)
			assert.Equal(t, tt.failed, result.Summary.Failed)
			assert.Equal(t, tt.errored, result.Summary.Errored)
			require.NotNil(t, result.First)
			assert.Equal(t, 0, result.First.Index)
		})
	}
}

func TestRunner_ConcurrencyBound(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	sender := &fakeSender{fn: func(int64) (*http.Response, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return &http.Response{StatusCode: 200}, nil
	}}

	r := NewRunner(sender, &Config{Repeat: 12, Concurrency: 3})
	_, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
	require.NoError(t, err)

	assert.LessOrEqual(t, peak, 3)
	assert.Greater(t, peak, 1)
}

func TestRunner_Retry(t *testing.T) {
	t.Run("retries transient status then succeeds", func(t *testing.T) {
		sender := &fakeSender{fn: func(call int64) (*http.Response, error) {
			if call < 3 {
				return &http.Response{StatusCode: 503}, nil
			}
			return &http.Response{StatusCode: 200}, nil
		}}
		r := NewRunner(sender, &Config{Retries: 3, RetryDelay: time.Millisecond})

		result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
		require.NoError(t, err)
		assert.True(t, result.First.Passed)
		assert.Equal(t, 3, result.First.Attempts)
		assert.Equal(t, int64(3), sender.calls.Load())
	})

	t.Run("does not retry non transient status", func(t *testing.T) {
		sender := &fakeSender{fn: status(404)}
		r := NewRunner(sender, &Config{Retries: 3, RetryDelay: time.Millisecond})

		result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
		require.NoError(t, err)
		assert.False(t, result.First.Passed)
		assert.Equal(t, 1, result.First.Attempts)
	})

	t.Run("custom retry statuses", func(t *testing.T) {
		sender := &fakeSender{fn: status(404)}
		r := NewRunner(sender, &Config{Retries: 2, RetryDelay: time.Millisecond, RetryOn: []int{404}})

		result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
		require.NoError(t, err)
		assert.Equal(t, 3, result.First.Attempts)
	})

	t.Run("retries network errors until exhausted", func(t *testing.T) {
		sender := &fakeSender{fn: func(int64) (*http.Response, error) { return nil, errors.New("reset") }}
		r := NewRunner(sender, &Config{Retries: 2, RetryDelay: time.Millisecond})

		result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
		require.NoError(t, err)
		assert.Error(t, result.First.Error)
		assert.Equal(t, 3, result.First.Attempts)
		assert.Equal(t, int64(1), result.Summary.Errored)
	})
}

func TestRunner_Duration(t *testing.T) {
	sender := &fakeSender{fn: func(int64) (*http.Response, error) {
		time.Sleep(5 * time.Millisecond)
		return &http.Response{StatusCode: 200}, nil
	}}
	r := NewRunner(sender, &Config{Duration: 60 * time.Millisecond, Concurrency: 2})

	start := time.Now()
	result, err := r.Run(context.Background(), http.NewRequest("GET", "http://x.test/"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Greater(t, result.Summary.Total, int64(2))
	assert.Zero(t, result.Summary.Errored)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &fakeSender{fn: func(call int64) (*http.Response, error) {
		if call == 2 {
			cancel()
		}
		return &http.Response{StatusCode: 200}, nil
	}}
	r := NewRunner(sender, &Config{Repeat: 100})

	result, err := r.Run(ctx, http.NewRequest("GET", "http://x.test/"))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Less(t, result.Summary.Total, int64(100))
}

func TestRunner_WithHTTPClient(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		hits.Add(1)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(nethttp.StatusAccepted)
	}))
	defer server.Close()

	parsed, err := parser.Parse(`curl -H 'Content-Type: application/json' -d '{"a":1}' ` + server.URL + `/jobs`)
	require.NoError(t, err)
	req, err := http.FromParsed(parsed)
	require.NoError(t, err)

	r := NewRunner(http.NewClientFor(req), &Config{Repeat: 6, Concurrency: 3})
	result, err := r.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int64(6), hits.Load())
	assert.Equal(t, int64(6), result.Summary.Succeeded)
	require.Len(t, result.Summary.StatusCodes, 1)
	assert.Equal(t, 202, result.Summary.StatusCodes[0].Code)
}
