// Package core defines the fundamental interfaces and types shared by the
// load harness: the measurement event, the reporter that carries it, and
// the coordinator/user contracts.
package core

import (
	"context"
	"time"
)

// Event represents a single measurement from one simulated user's
// GraphQL call (or a lifecycle outcome such as a failed login).
type Event struct {
	UserID    int
	Timestamp time.Time
	Tenant    string
	Flow      string
	Operation string
	Duration  time.Duration
	Success   bool
	Kind      string // result classification: success, http_error, graphql_error, parse_error
	Error     string
	Status    int   // HTTP status (0 when the transport failed)
	Bytes     int64 // response payload size
}

// FlowTotalOp is the synthetic operation name under which a whole flow
// iteration's duration is reported, distinct from its individual calls.
const FlowTotalOp = "_total"

// Label returns the metrics label for this event: tenant/flow/operation.
// Stable and collision-tolerant; downstream aggregation groups by it.
func (e Event) Label() string {
	return e.Tenant + "/" + e.Flow + "/" + e.Operation
}

// User is a simulated user driven by the coordinator. Run performs one
// lifecycle step or one flow iteration; the coordinator loops it until
// the context is cancelled or Run returns an error (fatal for that user).
type User interface {
	Run(ctx context.Context, userID int, rep Reporter) error
}

// UserFactory builds the stateful user for one spawned slot. Factory
// errors (unknown tenant, missing credential pool) abort that slot only.
type UserFactory func(userID int) (User, error)

// Coordinator spawns and manages simulated users.
type Coordinator interface {
	Spawn(ctx context.Context, count int, factory UserFactory)
}

// Reporter is the interface users use to send events to the collector.
type Reporter interface {
	Report(Event)
}

// NullReporter discards all events.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(Event) {}

// Context key for passing the user ID to lower layers.
type contextKey string

const userIDContextKey contextKey = "userID"

func ContextWithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDContextKey).(int); ok {
		return id
	}
	return 0
}
