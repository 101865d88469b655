package logger

import (
	"context"
	"sort"
	"sync"
	"time"
)

type OperationStats struct {
	Total        int64
	Failed       int64
	AvgLatencyMs float64
}

type opCounters struct {
	total   int64
	failed  int64
	latency time.Duration
}

var (
	metricsMu sync.Mutex
	counters  = make(map[string]*opCounters)
)

func RecordOperation(operation string, err error, duration time.Duration) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	c, ok := counters[operation]
	if !ok {
		c = &opCounters{}
		counters[operation] = c
	}
	c.total++
	c.latency += duration
	if err != nil {
		c.failed++
	}
}

func GetMetrics() map[string]OperationStats {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	result := make(map[string]OperationStats, len(counters))
	for op, c := range counters {
		stats := OperationStats{Total: c.total, Failed: c.failed}
		if c.total > 0 {
			stats.AvgLatencyMs = float64(c.latency.Nanoseconds()) / float64(c.total) / 1e6
		}
		result[op] = stats
	}
	return result
}

// LogMetrics writes one debug record per recorded operation, sorted by name.
func LogMetrics(ctx context.Context) {
	stats := GetMetrics()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	log := FromContext(ctx)
	for _, name := range names {
		s := stats[name]
		log.Debug("operation stats", "name", name, "total", s.Total, "failed", s.Failed, "avg_ms", s.AvgLatencyMs)
	}
}

func TimedOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	log := FromContext(ctx).With("step", operation)
	log.Debug("starting step")

	err := fn()
	duration := time.Since(start)

	RecordOperation(operation, err, duration)

	if err != nil {
		log.Error("step failed", "error", err, "duration", duration)
	} else {
		log.Debug("step completed", "duration", duration)
	}
	return err
}

func ResetMetrics() {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	counters = make(map[string]*opCounters)
}
