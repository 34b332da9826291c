package stats

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
	sigFigures   = 3
)

// Collector records send outcomes. It is safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	errored   atomic.Int64

	histogram   *hdrhistogram.Histogram
	statusCodes map[int]int64

	startTime time.Time
	endTime   time.Time
}

func NewCollector() *Collector {
	return &Collector{
		histogram:   hdrhistogram.New(minLatencyUs, maxLatencyUs, sigFigures),
		statusCodes: make(map[int]int64),
	}
}

// Start marks the beginning of the run
func (c *Collector) Start() {
	c.mu.Lock()
	c.startTime = time.Now()
	c.mu.Unlock()
}

// Stop marks the end of the run
func (c *Collector) Stop() {
	c.mu.Lock()
	c.endTime = time.Now()
	c.mu.Unlock()
}

// Record adds one send. A non-nil err counts as an error and its latency is
// not recorded; otherwise status decides between success and failure.
func (c *Collector) Record(duration time.Duration, status int, err error) {
	c.total.Add(1)

	if err != nil {
		c.errored.Add(1)
		return
	}
	if status >= 400 {
		c.failed.Add(1)
	} else {
		c.succeeded.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < minLatencyUs {
		latencyUs = minLatencyUs
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	c.mu.Lock()
	_ = c.histogram.RecordValue(latencyUs)
	c.statusCodes[status]++
	c.mu.Unlock()
}

// StatusCount is the number of responses seen with one status code.
type StatusCount struct {
	Code  int   `json:"code"`
	Count int64 `json:"count"`
}

// Summary is a point-in-time view of a Collector.
type Summary struct {
	Duration    time.Duration `json:"duration"`
	Total       int64         `json:"total"`
	Succeeded   int64         `json:"succeeded"`
	Failed      int64         `json:"failed"`
	Errored     int64         `json:"errored"`
	RPS         float64       `json:"rps"`
	SuccessRate float64       `json:"successRate"`

	P50    time.Duration `json:"p50"`
	P90    time.Duration `json:"p90"`
	P95    time.Duration `json:"p95"`
	P99    time.Duration `json:"p99"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	StdDev time.Duration `json:"stdDev"`

	StatusCodes []StatusCount `json:"statusCodes,omitempty"`
}

func us(v int64) time.Duration {
	return time.Duration(v) * time.Microsecond
}

// Summary returns the current totals and latency percentiles.
func (c *Collector) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	duration := c.endTime.Sub(c.startTime)
	if c.endTime.IsZero() {
		duration = time.Since(c.startTime)
	}
	if c.startTime.IsZero() {
		duration = 0
	}

	total := c.total.Load()
	succeeded := c.succeeded.Load()

	s := &Summary{
		Duration:  duration,
		Total:     total,
		Succeeded: succeeded,
		Failed:    c.failed.Load(),
		Errored:   c.errored.Load(),
	}
	if duration > 0 {
		s.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		s.SuccessRate = float64(succeeded) / float64(total)
	}

	if c.histogram.TotalCount() > 0 {
		s.P50 = us(c.histogram.ValueAtQuantile(50))
		s.P90 = us(c.histogram.ValueAtQuantile(90))
		s.P95 = us(c.histogram.ValueAtQuantile(95))
		s.P99 = us(c.histogram.ValueAtQuantile(99))
		s.Min = us(c.histogram.Min())
		s.Max = us(c.histogram.Max())
		s.Mean = us(int64(c.histogram.Mean()))
		s.StdDev = us(int64(c.histogram.StdDev()))
	}

	for code, n := range c.statusCodes {
		s.StatusCodes = append(s.StatusCodes, StatusCount{Code: code, Count: n})
	}
	sort.Slice(s.StatusCodes, func(i, j int) bool {
		return s.StatusCodes[i].Code < s.StatusCodes[j].Code
	})

	return s
}
