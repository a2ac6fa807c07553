// Package metrics tracks ingest-path health for the collector.
//
// Latency percentiles come from a DDSketch rather than raw samples, so the
// tracker stays constant-size no matter how many packets flow through.
package metrics

import (
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/xtxerr/beacon/config"
)

// Ingest accumulates ingest outcomes and write latencies.
//
// Ingest is safe for concurrent use by all sessions.
type Ingest struct {
	mu       sync.Mutex
	sketch   *ddsketch.DDSketch
	accepted int64
	failed   int64
}

// NewIngest creates an ingest tracker.
func NewIngest() *Ingest {
	m := &Ingest{}

	sketch, err := ddsketch.NewDefaultDDSketch(config.DefaultSketchAccuracy)
	if err == nil {
		m.sketch = sketch
	}

	return m
}

// Observe records one ingest attempt and its duration.
func (m *Ingest) Observe(d time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if failed {
		m.failed++
	} else {
		m.accepted++
	}

	if m.sketch != nil {
		m.sketch.Add(float64(d.Microseconds()))
	}
}

// Summary is a point-in-time view of the tracker.
type Summary struct {
	Accepted int64
	Failed   int64
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
}

// Summary returns the current counters and latency percentiles. The bool is
// false when nothing has been observed yet.
func (m *Ingest) Summary() (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{Accepted: m.accepted, Failed: m.failed}
	if m.accepted+m.failed == 0 {
		return s, false
	}

	if m.sketch != nil && m.sketch.GetCount() > 0 {
		s.P50 = quantile(m.sketch, 0.5)
		s.P95 = quantile(m.sketch, 0.95)
		s.P99 = quantile(m.sketch, 0.99)
	}

	return s, true
}

func quantile(sketch *ddsketch.DDSketch, q float64) time.Duration {
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0
	}
	return time.Duration(v) * time.Microsecond
}
