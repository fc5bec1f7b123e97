// Package gateway builds GraphQL request envelopes, sends them through
// an abstract transport and classifies the outcome. Every call is one
// attempt; retry policy belongs to the scheduling runtime, not here.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"gqlswarm/internal/core"
	"gqlswarm/internal/tenant"
)

const (
	// maxBodySize limits how much of a response body is read.
	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// Kind classifies a call outcome. Exactly one kind applies per call.
type Kind int

const (
	KindSuccess Kind = iota
	KindHTTPError
	KindGraphQLError
	KindParseError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindHTTPError:
		return "http_error"
	case KindGraphQLError:
		return "graphql_error"
	case KindParseError:
		return "parse_error"
	}
	return "unknown"
}

// Doer sends one HTTP request. *http.Client satisfies it; tests inject
// fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Call is one named GraphQL operation to execute.
type Call struct {
	Flow      string // flow name for the metrics label; empty for lifecycle calls
	Operation string
	Variables map[string]any
	Query     string
	Token     string // bearer token; empty before login
}

// Result is the classified outcome of a call. Flows gate on OK(); the
// full classification stays available for logging and reporting.
type Result struct {
	Kind     Kind
	Status   int      // HTTP status; 0 when the transport failed
	Payload  []byte   // raw response body on success
	Errors   []string // GraphQL error messages
	Detail   string   // transport or parse detail
	Duration time.Duration
	Bytes    int64
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Kind == KindSuccess }

// Field extracts a value from the success payload by gjson path.
func (r Result) Field(path string) gjson.Result {
	return gjson.GetBytes(r.Payload, path)
}

// ErrorText returns a single log-friendly description of a failure.
func (r Result) ErrorText() string {
	switch r.Kind {
	case KindHTTPError:
		if r.Detail != "" {
			return r.Detail
		}
		return http.StatusText(r.Status)
	case KindGraphQLError:
		if len(r.Errors) > 0 {
			return r.Errors[0]
		}
		return "graphql error"
	case KindParseError:
		return r.Detail
	}
	return ""
}

// Gateway executes calls for one tenant against one endpoint. Stateless
// apart from its immutable configuration; safe for sequential use by the
// owning user.
type Gateway struct {
	endpoint string
	cfg      tenant.Config
	client   Doer
	log      *zap.Logger
	wire     *WireLogger
}

// New creates a gateway. log may be nil (disabled); wire may be nil (no
// verbose request/response dumps).
func New(endpoint string, cfg tenant.Config, client Doer, log *zap.Logger, wire *WireLogger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		endpoint: endpoint,
		cfg:      cfg,
		client:   client,
		log:      log,
		wire:     wire,
	}
}

// Label returns the metrics label for a call: tenant/flow/operation.
func (g *Gateway) Label(call Call) string {
	return g.cfg.TenantID + "/" + call.Flow + "/" + call.Operation
}

// Execute sends one call and classifies the outcome. It never panics and
// never propagates a Go error: every failure mode comes back as a tagged
// Result.
func (g *Gateway) Execute(ctx context.Context, call Call) Result {
	userID := core.UserIDFromContext(ctx)
	start := time.Now()

	envelope, err := json.Marshal(map[string]any{
		"operationName": call.Operation,
		"variables":     call.Variables,
		"query":         call.Query,
	})
	if err != nil {
		return g.fail(call, Result{
			Kind: KindParseError, Detail: "marshal envelope: " + err.Error(),
			Duration: time.Since(start),
		})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(envelope))
	if err != nil {
		return g.fail(call, Result{
			Kind: KindHTTPError, Detail: err.Error(), Duration: time.Since(start),
		})
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range g.cfg.Headers {
		req.Header.Set(k, v)
	}
	if call.Token != "" {
		req.Header.Set("Authorization", "Bearer "+call.Token)
	}

	g.wire.LogRequest(userID, g.Label(call), req)

	resp, err := g.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return g.fail(call, Result{
			Kind: KindHTTPError, Detail: err.Error(), Duration: duration,
		})
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	_, _ = io.Copy(io.Discard, resp.Body)

	g.wire.LogResponse(userID, g.Label(call), resp, body, duration)

	result := classify(resp.StatusCode, body)
	result.Duration = duration
	result.Bytes = int64(len(body))

	if result.OK() {
		g.log.Debug("call succeeded",
			zap.String("label", g.Label(call)),
			zap.Int("user", userID),
			zap.Duration("duration", duration),
			zap.Int64("bytes", result.Bytes))
		return result
	}
	return g.fail(call, result)
}

func (g *Gateway) fail(call Call, r Result) Result {
	g.log.Warn("call failed",
		zap.String("label", g.Label(call)),
		zap.String("kind", r.Kind.String()),
		zap.Int("status", r.Status),
		zap.String("error", r.ErrorText()),
		zap.Duration("duration", r.Duration))
	return r
}

// classify maps a (status, body) pair to exactly one result kind.
// Non-200 wins over body content; a top-level errors list wins over
// success; an unparseable body is a parse error.
func classify(status int, body []byte) Result {
	if status != http.StatusOK {
		return Result{Kind: KindHTTPError, Status: status}
	}
	if !gjson.ValidBytes(body) {
		return Result{Kind: KindParseError, Status: status, Detail: "invalid JSON in response body"}
	}
	if errList := gjson.GetBytes(body, "errors"); errList.IsArray() && len(errList.Array()) > 0 {
		msgs := make([]string, 0, len(errList.Array()))
		for _, e := range errList.Array() {
			if m := e.Get("message"); m.Exists() {
				msgs = append(msgs, m.String())
			} else {
				msgs = append(msgs, e.Raw)
			}
		}
		return Result{Kind: KindGraphQLError, Status: status, Errors: msgs}
	}
	return Result{Kind: KindSuccess, Status: status, Payload: body}
}
