package loadtest

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/headend/simulcrypt/internal/xlog"
	"github.com/prometheus/client_golang/prometheus"
)

// Stats records per-request round-trip latency: a running min/mean/max/
// stdev over a sliding window of the most recent samples, plus
// cumulative totals since the run started (spec section 4.9).
type Stats struct {
	mu         sync.Mutex
	window     []time.Duration
	windowSize int
	next       int
	filled     bool

	cumCount uint64
	cumSum   time.Duration
	cumMin   time.Duration
	cumMax   time.Duration

	latency prometheus.Histogram
	total   prometheus.Counter
	errors  prometheus.Counter
}

// NewStats builds a Stats with a sliding window of windowSize samples,
// registering its Prometheus collectors against reg (pass nil to skip
// registration, e.g. in tests).
func NewStats(windowSize int, reg prometheus.Registerer) *Stats {
	s := &Stats{
		window:     make([]time.Duration, windowSize),
		windowSize: windowSize,
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ecmgload",
			Name:      "cw_provision_latency_seconds",
			Help:      "Round-trip latency of a CW_provision/ECM_response exchange.",
			Buckets:   prometheus.DefBuckets,
		}),
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecmgload",
			Name:      "cw_provision_total",
			Help:      "Total CW_provision requests sent.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ecmgload",
			Name:      "cw_provision_errors_total",
			Help:      "Total CW_provision requests that failed or timed out.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.latency, s.total, s.errors)
	}
	return s
}

// Record adds one successful round-trip latency sample.
func (s *Stats) Record(d time.Duration) {
	s.mu.Lock()
	s.window[s.next] = d
	s.next = (s.next + 1) % s.windowSize
	if s.next == 0 {
		s.filled = true
	}
	s.cumCount++
	s.cumSum += d
	if s.cumCount == 1 || d < s.cumMin {
		s.cumMin = d
	}
	if d > s.cumMax {
		s.cumMax = d
	}
	s.mu.Unlock()

	s.latency.Observe(d.Seconds())
	s.total.Inc()
}

// RecordError counts a failed or timed-out request.
func (s *Stats) RecordError() {
	s.total.Inc()
	s.errors.Inc()
}

// Snapshot summarizes the current sliding window plus cumulative totals.
type Snapshot struct {
	WindowMin, WindowMean, WindowMax, WindowStdev time.Duration
	WindowCount                                   int
	CumCount                                      uint64
	CumMin, CumMax, CumMean                       time.Duration
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next
	if s.filled {
		n = s.windowSize
	}
	snap := Snapshot{
		WindowCount: n,
		CumCount:    s.cumCount,
		CumMin:      s.cumMin,
		CumMax:      s.cumMax,
	}
	if s.cumCount > 0 {
		snap.CumMean = s.cumSum / time.Duration(s.cumCount)
	}
	if n == 0 {
		return snap
	}

	var sum time.Duration
	min, max := s.window[0], s.window[0]
	for i := 0; i < n; i++ {
		v := s.window[i]
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / time.Duration(n)

	var variance float64
	for i := 0; i < n; i++ {
		diff := float64(s.window[i] - mean)
		variance += diff * diff
	}
	variance /= float64(n)

	snap.WindowMin = min
	snap.WindowMax = max
	snap.WindowMean = mean
	snap.WindowStdev = time.Duration(math.Sqrt(variance))
	return snap
}

// ReportLoop emits one text line per tick describing the current
// Snapshot, in the teacher's HumanRate/HumanSize style of compact,
// single-line stat summaries, until ctx is canceled.
func (s *Stats) ReportLoop(ctx context.Context, interval time.Duration, log *xlog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := s.Snapshot()
			log.Info(fmt.Sprintf(
				"requests=%d window(min=%s mean=%s max=%s stdev=%s) cumulative(min=%s mean=%s max=%s)",
				snap.CumCount, snap.WindowMin, snap.WindowMean, snap.WindowMax, snap.WindowStdev,
				snap.CumMin, snap.CumMean, snap.CumMax))
		}
	}
}
