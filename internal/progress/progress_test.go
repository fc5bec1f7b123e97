package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"gqlswarm/internal/collector"
	"gqlswarm/internal/core"
)

func TestProgress_QuietMode(t *testing.T) {
	c := collector.NewCollector()
	defer c.Close()

	progress := NewProgress(c, nil, true)
	if !progress.quiet {
		t.Error("quiet should be true")
	}

	// Start and stop must not panic or print in quiet mode.
	var buf bytes.Buffer
	progress.SetOutput(&buf)
	progress.Start()
	time.Sleep(10 * time.Millisecond)
	progress.Stop()
	progress.Print("phase message")
	if buf.String() != "" {
		t.Errorf("quiet mode wrote %q", buf.String())
	}
}

func TestProgress_DoubleStop(t *testing.T) {
	c := collector.NewCollector()
	defer c.Close()

	progress := NewProgress(c, nil, true)
	progress.Start()
	progress.Stop()
	progress.Stop()
}

func TestProgress_StopWithoutStart(t *testing.T) {
	c := collector.NewCollector()
	defer c.Close()

	progress := NewProgress(c, nil, false)
	progress.SetOutput(&bytes.Buffer{})
	progress.Stop()
}

func TestProgress_Print(t *testing.T) {
	c := collector.NewCollector()
	defer c.Close()

	var buf bytes.Buffer
	progress := NewProgress(c, nil, false)
	progress.SetOutput(&buf)

	progress.Print("Phase: steady (duration: 10s)")

	output := buf.String()
	if !strings.Contains(output, "\033[K") {
		t.Error("expected line clear escape sequence")
	}
	if !strings.Contains(output, "Phase: steady (duration: 10s)\n") {
		t.Errorf("expected message with newline, got: %q", output)
	}
}

func TestProgress_Printf(t *testing.T) {
	c := collector.NewCollector()
	defer c.Close()

	var buf bytes.Buffer
	progress := NewProgress(c, nil, false)
	progress.SetOutput(&buf)

	progress.Printf("Phase: %s (users: %d)", "ramp-up", 10)

	if !strings.Contains(buf.String(), "Phase: ramp-up (users: 10)\n") {
		t.Errorf("expected formatted message, got: %q", buf.String())
	}
}

func TestProgress_StatusLine(t *testing.T) {
	c := collector.NewCollector()
	c.Report(core.Event{Tenant: "t", Flow: "f", Operation: "Cart", Success: false, Kind: "http_error"})
	time.Sleep(10 * time.Millisecond) // let the collector drain

	var buf bytes.Buffer
	progress := NewProgress(c, func() int { return 7 }, false)
	progress.SetOutput(&buf)
	progress.startTime = time.Now()
	progress.printProgress()
	c.Close()

	output := buf.String()
	for _, want := range []string{"Users: 7", "Calls: 1", "Errors: 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("status line missing %q: %q", want, output)
		}
	}
}
