package gateway

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const maxWireBodySize = 4096

// WireLogger dumps raw requests and responses for verbose runs. A nil
// *WireLogger is a no-op, so callers never need to guard.
type WireLogger struct {
	out io.Writer
	mu  sync.Mutex
}

func NewWireLogger(out io.Writer) *WireLogger {
	return &WireLogger{out: out}
}

func (d *WireLogger) LogRequest(userID int, label string, req *http.Request) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "\n[User %d] >>> %s\n", userID, label)
	fmt.Fprintf(&buf, "  %s %s\n", req.Method, req.URL.String())

	if len(req.Header) > 0 {
		buf.WriteString("  Headers:\n")
		for name, values := range req.Header {
			fmt.Fprintf(&buf, "    %s: %s\n", name, strings.Join(values, ", "))
		}
	}

	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		if err == nil && len(body) > 0 {
			req.Body = io.NopCloser(bytes.NewReader(body))
			fmt.Fprintf(&buf, "  Body: %s\n", truncateWireBody(body))
		}
	}
	fmt.Fprint(d.out, buf.String())
}

func (d *WireLogger) LogResponse(userID int, label string, resp *http.Response, body []byte, duration time.Duration) {
	if d == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "[User %d] <<< %s (%s)\n", userID, label, duration.Round(time.Millisecond))
	fmt.Fprintf(&buf, "  Status: %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	if len(body) > 0 {
		fmt.Fprintf(&buf, "  Body: %s\n", truncateWireBody(body))
	}
	fmt.Fprint(d.out, buf.String())
}

func truncateWireBody(body []byte) string {
	if len(body) <= maxWireBodySize {
		return string(body)
	}
	return string(body[:maxWireBodySize]) + fmt.Sprintf("... (truncated, %d bytes total)", len(body))
}
