package metrics

import (
	"sync"
	"time"
)

type Collector struct {
	mu        sync.Mutex
	startedAt time.Time
	total     int64
	statuses  map[int]int64
	errors    map[string]int64
	totalTime time.Duration
}

func NewCollector() *Collector {
	return &Collector{
		startedAt: time.Now().UTC(),
		statuses:  make(map[int]int64),
		errors:    make(map[string]int64),
	}
}

func (c *Collector) ObserveRequest(status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.statuses[status]++
	c.totalTime += duration
}

func (c *Collector) ObserveError(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[code]++
}

type Snapshot struct {
	UptimeSeconds int64            `json:"uptime_seconds"`
	Requests      int64            `json:"requests"`
	Statuses      map[int]int64    `json:"statuses"`
	Errors        map[string]int64 `json:"errors"`
	AvgDurationMS float64          `json:"avg_duration_ms"`
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	statuses := make(map[int]int64, len(c.statuses))
	for status, count := range c.statuses {
		statuses[status] = count
	}
	errs := make(map[string]int64, len(c.errors))
	for code, count := range c.errors {
		errs[code] = count
	}
	avg := 0.0
	if c.total > 0 {
		avg = float64(c.totalTime.Milliseconds()) / float64(c.total)
	}
	return Snapshot{
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
		Requests:      c.total,
		Statuses:      statuses,
		Errors:        errs,
		AvgDurationMS: avg,
	}
}
