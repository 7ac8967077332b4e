package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	reportsGenerated uint64
	reportCacheHits  uint64
	jobsCompleted    uint64
	jobsFailed       uint64

	mu      sync.Mutex
	byKind  map[string]uint64
	exports map[string]uint64
}

func New() *Collector {
	return &Collector{byKind: map[string]uint64{}, exports: map[string]uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordReport counts one generated report; cached marks a cache hit.
func (c *Collector) RecordReport(kind string, cached bool) {
	atomic.AddUint64(&c.reportsGenerated, 1)
	if cached {
		atomic.AddUint64(&c.reportCacheHits, 1)
	}
	c.mu.Lock()
	c.byKind[kind]++
	c.mu.Unlock()
}

func (c *Collector) RecordExport(format string) {
	c.mu.Lock()
	c.exports[format]++
	c.mu.Unlock()
}

func (c *Collector) RecordJob(_ string, err error) {
	if err != nil {
		atomic.AddUint64(&c.jobsFailed, 1)
		return
	}
	atomic.AddUint64(&c.jobsCompleted, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	byKind := make(map[string]uint64, len(c.byKind))
	for k, v := range c.byKind {
		byKind[k] = v
	}
	exports := make(map[string]uint64, len(c.exports))
	for k, v := range c.exports {
		exports[k] = v
	}
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           errs,
		"rateLimitedTotal":      limited,
		"avgDurationMs":         avg,
		"totalDurationMs":       totalMs,
		"reportsGeneratedTotal": atomic.LoadUint64(&c.reportsGenerated),
		"reportCacheHitsTotal":  atomic.LoadUint64(&c.reportCacheHits),
		"reportsByKind":         byKind,
		"exportsByFormat":       exports,
		"jobsCompletedTotal":    atomic.LoadUint64(&c.jobsCompleted),
		"jobsFailedTotal":       atomic.LoadUint64(&c.jobsFailed),
	}
}
