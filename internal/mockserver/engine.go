package mockserver

import (
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// errorStatuses are the upstream-rejection codes the error branch draws
// from, uniformly.
var errorStatuses = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Outcome is the engine's decision for one request: what to return and
// how long to stall before returning it.
type Outcome struct {
	Status  int
	Body    map[string]any
	Latency time.Duration
}

// Engine decides error-vs-success per tenant profile and synthesizes
// operation-shaped payloads. Safe for concurrent use.
type Engine struct {
	table *ProfileTable

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates an engine over the profile table. seed 0 means
// time-seeded.
func NewEngine(table *ProfileTable, seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		table: table,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// Profile resolves the tenant's profile (default for unknown tenants).
func (e *Engine) Profile(tenantID string) Profile {
	return e.table.Lookup(tenantID)
}

// Handle decides the response for one request. The error branch
// fast-fails with zero latency, modeling upstream rejection before any
// work happens; the success branch draws latency uniformly from the
// profile's range and synthesizes a payload shaped like the operation.
func (e *Engine) Handle(tenantID, operation string) Outcome {
	profile := e.table.Lookup(tenantID)

	e.mu.Lock()
	coin := e.rng.Float64()
	status := errorStatuses[e.rng.Intn(len(errorStatuses))]
	latency := profile.MinLatency
	if profile.MaxLatency > profile.MinLatency {
		latency += time.Duration(e.rng.Int63n(int64(profile.MaxLatency - profile.MinLatency)))
	}
	seed := e.rng.Int63()
	e.mu.Unlock()

	if coin < profile.ErrorRate {
		return Outcome{
			Status: status,
			Body: map[string]any{
				"errors": []any{
					map[string]any{
						"message": profile.ErrorMessage,
						"extensions": map[string]any{
							"tenant": profile.Tenant,
							"code":   status,
						},
					},
				},
			},
		}
	}

	return Outcome{
		Status:  http.StatusOK,
		Body:    synthesize(operation, profile.ResponseSize, rand.New(rand.NewSource(seed))),
		Latency: latency,
	}
}
