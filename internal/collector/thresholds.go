package collector

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Thresholds defines pass/fail criteria for a run, checked against the
// computed metrics after the test ends.
type Thresholds struct {
	CallDuration *DurationThresholds `yaml:"call_duration"`
	CallFailed   *FailureThresholds  `yaml:"call_failed"`
}

// DurationThresholds defines latency limits; zero fields are skipped.
type DurationThresholds struct {
	Avg time.Duration `yaml:"avg"`
	P50 time.Duration `yaml:"p50"`
	P95 time.Duration `yaml:"p95"`
	P99 time.Duration `yaml:"p99"`
}

// FailureThresholds defines the tolerated failure rate, e.g. "5%".
type FailureThresholds struct {
	Rate string `yaml:"rate"`
}

// ThresholdResult is the outcome of a single check.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults contains all check results.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// Check evaluates all thresholds against computed metrics.
func (t *Thresholds) Check(m *Metrics) *ThresholdResults {
	results := &ThresholdResults{Passed: true}
	if t == nil {
		return results
	}

	if t.CallDuration != nil {
		checks := []struct {
			name      string
			threshold time.Duration
			actual    time.Duration
		}{
			{"call_duration.avg", t.CallDuration.Avg, m.Duration.Avg},
			{"call_duration.p50", t.CallDuration.P50, m.Duration.P50},
			{"call_duration.p95", t.CallDuration.P95, m.Duration.P95},
			{"call_duration.p99", t.CallDuration.P99, m.Duration.P99},
		}
		for _, check := range checks {
			if check.threshold == 0 {
				continue
			}
			passed := check.actual < check.threshold
			if !passed {
				results.Passed = false
			}
			results.Results = append(results.Results, ThresholdResult{
				Name:      check.name,
				Passed:    passed,
				Threshold: FormatDuration(check.threshold),
				Actual:    FormatDuration(check.actual),
			})
		}
	}

	if t.CallFailed != nil && t.CallFailed.Rate != "" {
		if limit, err := parsePercentage(t.CallFailed.Rate); err == nil {
			actual := 100.0 - m.SuccessRate
			passed := actual < limit
			if !passed {
				results.Passed = false
			}
			results.Results = append(results.Results, ThresholdResult{
				Name:      "call_failed.rate",
				Passed:    passed,
				Threshold: t.CallFailed.Rate,
				Actual:    fmt.Sprintf("%.2f%%", actual),
			})
		}
	}

	return results
}

func parsePercentage(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasSuffix(s, "%") {
		return 0, fmt.Errorf("invalid percentage format: %s", s)
	}
	return strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
}
