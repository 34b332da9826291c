package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/curlspec/packages/http"
	"github.com/abdul-hamid-achik/curlspec/packages/stats"
)

const (
	// DefaultConcurrency is the number of requests in flight when Config leaves it unset
	DefaultConcurrency = 1
	// DefaultRetryDelay is the default delay between retries
	DefaultRetryDelay = time.Second
)

// DefaultRetryOn lists the status codes retried when Config.RetryOn is empty.
var DefaultRetryOn = []int{408, 429, 500, 502, 503, 504}

// Sender is the part of http.Client the runner needs.
type Sender interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

type Config struct {
	// Repeat is how many requests to send. Ignored when Duration is set.
	Repeat int
	// Duration keeps sending until it elapses.
	Duration    time.Duration
	Concurrency int
	Retries     int
	RetryDelay  time.Duration
	RetryOn     []int
	// OnResult is called once per finished request. Calls are serialized.
	OnResult func(*RequestResult)
}

type Runner struct {
	client Sender
	config *Config
}

func NewRunner(client Sender, cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Runner{
		client: client,
		config: cfg,
	}
}

type RunResult struct {
	// First is the result of the first request sent, nil if none finished.
	First   *RequestResult
	Summary *stats.Summary
}

type RequestResult struct {
	Index    int
	Attempts int
	Passed   bool
	Duration time.Duration
	Response *http.Response
	Error    error
}

func (r *RequestResult) status() int {
	if r.Response == nil {
		return 0
	}
	return r.Response.StatusCode
}

// Run sends req according to the config. When ctx is cancelled it stops
// scheduling, waits for requests in flight and returns what was collected
// together with ctx.Err().
func (r *Runner) Run(ctx context.Context, req *http.Request) (*RunResult, error) {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	repeat := r.config.Repeat
	if repeat <= 0 {
		repeat = 1
	}

	parent := ctx
	timed := r.config.Duration > 0
	if timed {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	collector := stats.NewCollector()
	collector.Start()

	result := &RunResult{}
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, concurrency)
	)

schedule:
	for i := 0; timed || i < repeat; i++ {
		select {
		case sem <- struct{}{}: // acquire semaphore
		case <-ctx.Done():
			break schedule
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }() // release semaphore

			res := r.runWithRetry(ctx, idx, req)
			if res.Error != nil && timed && parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				// cut off by the run deadline, not a real failure
				return
			}
			collector.Record(res.Duration, res.status(), res.Error)

			mu.Lock()
			defer mu.Unlock()
			if idx == 0 {
				result.First = res
			}
			if r.config.OnResult != nil {
				r.config.OnResult(res)
			}
		}(i)
	}

	wg.Wait()
	collector.Stop()
	result.Summary = collector.Summary()

	return result, parent.Err()
}

func (r *Runner) runWithRetry(ctx context.Context, idx int, req *http.Request) *RequestResult {
	retryDelay := r.config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	retryOn := r.config.RetryOn
	if len(retryOn) == 0 {
		retryOn = DefaultRetryOn
	}

	var result *RequestResult
	for attempt := 0; attempt <= r.config.Retries; attempt++ {
		result = r.execute(ctx, idx, req)
		result.Attempts = attempt + 1

		if result.Passed || !shouldRetry(result, retryOn) || ctx.Err() != nil {
			return result
		}

		if attempt < r.config.Retries {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return result
			}
		}
	}

	return result
}

func shouldRetry(result *RequestResult, retryOn []int) bool {
	if result.Error != nil {
		return true
	}
	for _, status := range retryOn {
		if result.Response.StatusCode == status {
			return true
		}
	}
	return false
}

func (r *Runner) execute(ctx context.Context, idx int, req *http.Request) *RequestResult {
	result := &RequestResult{Index: idx}

	start := time.Now()
	resp, err := r.client.Do(ctx, req)
	result.Duration = time.Since(start)

	if err != nil {
		result.Error = err
		return result
	}
	result.Response = resp
	result.Passed = resp.StatusCode < 400
	return result
}
