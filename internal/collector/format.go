package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// PrintText writes the run report in human-readable form.
func (c *Collector) PrintText(w io.Writer, m *Metrics, thresholds *ThresholdResults) {
	FormatText(w, m, thresholds)
}

// PrintJSON writes the run report as JSON.
func (c *Collector) PrintJSON(w io.Writer, m *Metrics, thresholds *ThresholdResults) {
	FormatJSON(w, m, thresholds)
}

// FormatText writes metrics in human-readable format.
func FormatText(w io.Writer, m *Metrics, thresholds *ThresholdResults) {
	if m.TotalCalls == 0 {
		fmt.Fprintln(w, "No calls recorded")
		return
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "gqlswarm - Load Test Results")
	fmt.Fprintln(w, "============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Duration:     %v\n", m.TestDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Total Calls:  %d\n", m.TotalCalls)
	fmt.Fprintf(w, "Success Rate: %.1f%% (%d / %d)\n", m.SuccessRate, m.SuccessCount, m.TotalCalls)
	fmt.Fprintf(w, "Calls/sec:    %.1f\n", m.CallsPerSec)

	if len(m.Kinds) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Failures:")
		for _, kind := range sortedKeys(m.Kinds) {
			fmt.Fprintf(w, "  %-15s %d\n", kind, m.Kinds[kind])
		}
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Response Times:")
	fmt.Fprintf(w, "  Min:    %s\n", FormatDuration(m.Duration.Min))
	fmt.Fprintf(w, "  Avg:    %s\n", FormatDuration(m.Duration.Avg))
	fmt.Fprintf(w, "  P50:    %s\n", FormatDuration(m.Duration.P50))
	fmt.Fprintf(w, "  P95:    %s\n", FormatDuration(m.Duration.P95))
	fmt.Fprintf(w, "  P99:    %s\n", FormatDuration(m.Duration.P99))
	fmt.Fprintf(w, "  Max:    %s\n", FormatDuration(m.Duration.Max))

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "By Tenant:")
	for _, id := range sortedMetricKeys(m.Tenants) {
		tm := m.Tenants[id]
		fmt.Fprintf(w, "  %-15s %d calls  %.1f%% ok  avg=%s  p95=%s  %s recv\n",
			id, tm.Count, successRate(tm),
			FormatDuration(tm.Duration.Avg), FormatDuration(tm.Duration.P95),
			formatBytes(tm.Bytes))
	}

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "By Operation:")
	for _, label := range sortedMetricKeys(m.Labels) {
		lm := m.Labels[label]
		fmt.Fprintf(w, "  %-55s %d calls  %.1f%% ok  avg=%s  p99=%s\n",
			label, lm.Count, successRate(lm),
			FormatDuration(lm.Duration.Avg), FormatDuration(lm.Duration.P99))
	}

	if thresholds != nil && len(thresholds.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Thresholds:")
		for _, result := range thresholds.Results {
			symbol := "PASS"
			if !result.Passed {
				symbol = "FAIL"
			}
			fmt.Fprintf(w, "  [%s] %s < %s (actual: %s)\n",
				symbol, result.Name, result.Threshold, result.Actual)
		}
	}
}

// FormatJSON writes metrics in JSON format.
func FormatJSON(w io.Writer, m *Metrics, thresholds *ThresholdResults) {
	output := struct {
		Duration     string                      `json:"duration"`
		TotalCalls   int                         `json:"totalCalls"`
		SuccessCount int                         `json:"successCount"`
		FailureCount int                         `json:"failureCount"`
		SuccessRate  float64                     `json:"successRate"`
		CallsPerSec  float64                     `json:"callsPerSec"`
		Failures     map[string]int              `json:"failuresByKind,omitempty"`
		Durations    jsonDurationMetrics         `json:"durations"`
		Tenants      map[string]jsonLabelMetrics `json:"tenants"`
		Labels       map[string]jsonLabelMetrics `json:"labels"`
		Thresholds   *ThresholdResults           `json:"thresholds,omitempty"`
	}{
		Duration:     m.TestDuration.Round(time.Millisecond).String(),
		TotalCalls:   m.TotalCalls,
		SuccessCount: m.SuccessCount,
		FailureCount: m.FailureCount,
		SuccessRate:  m.SuccessRate,
		CallsPerSec:  m.CallsPerSec,
		Failures:     m.Kinds,
		Durations:    toJSONDurationMetrics(m.Duration),
		Tenants:      make(map[string]jsonLabelMetrics),
		Labels:       make(map[string]jsonLabelMetrics),
		Thresholds:   thresholds,
	}

	for id, tm := range m.Tenants {
		output.Tenants[id] = toJSONLabelMetrics(tm)
	}
	for label, lm := range m.Labels {
		output.Labels[label] = toJSONLabelMetrics(lm)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output) // stdout errors are unrecoverable
}

type jsonDurationMetrics struct {
	Min string `json:"min"`
	Max string `json:"max"`
	Avg string `json:"avg"`
	P50 string `json:"p50"`
	P90 string `json:"p90"`
	P95 string `json:"p95"`
	P99 string `json:"p99"`
}

type jsonLabelMetrics struct {
	Count       int                 `json:"count"`
	Success     int                 `json:"success"`
	Failed      int                 `json:"failed"`
	SuccessRate float64             `json:"successRate"`
	Bytes       int64               `json:"bytesReceived"`
	Durations   jsonDurationMetrics `json:"durations"`
}

func toJSONLabelMetrics(lm *LabelMetrics) jsonLabelMetrics {
	return jsonLabelMetrics{
		Count:       lm.Count,
		Success:     lm.Success,
		Failed:      lm.Failed,
		SuccessRate: successRate(lm),
		Bytes:       lm.Bytes,
		Durations:   toJSONDurationMetrics(lm.Duration),
	}
}

func toJSONDurationMetrics(d DurationMetrics) jsonDurationMetrics {
	return jsonDurationMetrics{
		Min: FormatDuration(d.Min),
		Max: FormatDuration(d.Max),
		Avg: FormatDuration(d.Avg),
		P50: FormatDuration(d.P50),
		P90: FormatDuration(d.P90),
		P95: FormatDuration(d.P95),
		P99: FormatDuration(d.P99),
	}
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dus", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%dB", n)
}

func successRate(lm *LabelMetrics) float64 {
	if lm.Count == 0 {
		return 0
	}
	return float64(lm.Success) / float64(lm.Count) * 100
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMetricKeys(m map[string]*LabelMetrics) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
