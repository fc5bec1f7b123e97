package collector

import (
	"sort"
	"time"

	"gqlswarm/internal/core"
)

// Metrics is the aggregated run result.
type Metrics struct {
	TotalCalls   int
	SuccessCount int
	FailureCount int
	SuccessRate  float64 // percent
	CallsPerSec  float64
	TestDuration time.Duration
	Duration     DurationMetrics
	Kinds        map[string]int           // failure classification counts
	Labels       map[string]*LabelMetrics // keyed by tenant/flow/operation
	Tenants      map[string]*LabelMetrics
}

// LabelMetrics is the per-label (or per-tenant) breakdown.
type LabelMetrics struct {
	Count    int
	Success  int
	Failed   int
	Bytes    int64
	Duration DurationMetrics
}

// DurationMetrics contains latency statistics.
type DurationMetrics struct {
	Min time.Duration
	Max time.Duration
	Avg time.Duration
	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
}

// ComputeMetrics aggregates events. Pure function, no side effects.
// Flow-total events are excluded from the call counts so one flow
// iteration isn't double-counted.
func ComputeMetrics(events []core.Event, testDuration time.Duration) *Metrics {
	m := &Metrics{
		TestDuration: testDuration,
		Kinds:        make(map[string]int),
		Labels:       make(map[string]*LabelMetrics),
		Tenants:      make(map[string]*LabelMetrics),
	}

	var allDurations []time.Duration
	labelDurations := make(map[string][]time.Duration)
	tenantDurations := make(map[string][]time.Duration)

	for _, e := range events {
		if e.Operation == core.FlowTotalOp {
			continue
		}
		m.TotalCalls++
		if e.Success {
			m.SuccessCount++
		} else {
			m.FailureCount++
			m.Kinds[e.Kind]++
		}
		allDurations = append(allDurations, e.Duration)

		label := e.Label()
		lm := m.Labels[label]
		if lm == nil {
			lm = &LabelMetrics{}
			m.Labels[label] = lm
		}
		tm := m.Tenants[e.Tenant]
		if tm == nil {
			tm = &LabelMetrics{}
			m.Tenants[e.Tenant] = tm
		}
		for _, agg := range []*LabelMetrics{lm, tm} {
			agg.Count++
			if e.Success {
				agg.Success++
			} else {
				agg.Failed++
			}
			agg.Bytes += e.Bytes
		}
		labelDurations[label] = append(labelDurations[label], e.Duration)
		tenantDurations[e.Tenant] = append(tenantDurations[e.Tenant], e.Duration)
	}

	if m.TotalCalls > 0 {
		m.SuccessRate = float64(m.SuccessCount) / float64(m.TotalCalls) * 100
	}
	if m.TestDuration > 0 {
		m.CallsPerSec = float64(m.TotalCalls) / m.TestDuration.Seconds()
	}

	m.Duration = ComputeDurationMetrics(allDurations)
	for label, durations := range labelDurations {
		m.Labels[label].Duration = ComputeDurationMetrics(durations)
	}
	for id, durations := range tenantDurations {
		m.Tenants[id].Duration = ComputeDurationMetrics(durations)
	}
	return m
}

// ComputePercentile calculates the percentile value from an ascending
// sorted slice using the nearest-rank method. p is in [0, 1].
func ComputePercentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}

// ComputeDurationMetrics calculates all duration statistics.
func ComputeDurationMetrics(durations []time.Duration) DurationMetrics {
	if len(durations) == 0 {
		return DurationMetrics{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return DurationMetrics{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: total / time.Duration(len(sorted)),
		P50: ComputePercentile(sorted, 0.50),
		P90: ComputePercentile(sorted, 0.90),
		P95: ComputePercentile(sorted, 0.95),
		P99: ComputePercentile(sorted, 0.99),
	}
}
