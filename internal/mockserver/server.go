package mockserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gqlswarm/internal/tenant"
)

// maxRequestBody caps how much of an inbound envelope is read.
const maxRequestBody = 1 << 20 // 1MB

// Server is the mock backend's HTTP surface.
type Server struct {
	engine  *Engine
	log     *zap.Logger
	router  chi.Router
	metrics *metrics
	sleep   func(time.Duration) // injectable so tests skip real latency
}

// NewServer wires the engine to its routes. log may be nil.
func NewServer(engine *Engine, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		log:     log,
		router:  chi.NewRouter(),
		metrics: newMetrics(),
		sleep:   time.Sleep,
	}
	s.routes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Post("/", s.handleGraphQL)
	s.router.Post("/health", s.handleHealth)
	s.router.Post("/tenant-stats", s.handleTenantStats)
	s.router.Get("/metrics", s.metrics.handler().ServeHTTP)
}

// handleGraphQL is the main endpoint: tenant from header, operation
// from the envelope, outcome from the stochastic engine. Malformed
// bodies become the unknown operation; the mock layer never rejects a
// request on its own.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenant.HeaderTenantID)
	if tenantID == "" {
		tenantID = "unknown"
	}

	var envelope struct {
		OperationName string `json:"operationName"`
	}
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	_ = json.Unmarshal(body, &envelope)

	outcome := s.engine.Handle(tenantID, envelope.OperationName)
	s.metrics.observe(tenantID, envelope.OperationName, outcome)

	if outcome.Latency > 0 {
		s.sleep(outcome.Latency)
	}

	s.log.Debug("handled request",
		zap.String("tenant", tenantID),
		zap.String("operation", envelope.OperationName),
		zap.Int("status", outcome.Status),
		zap.Duration("latency", outcome.Latency))

	s.writeJSON(w, outcome.Status, outcome.Body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleTenantStats exposes the resolved profile for the requesting
// tenant, mostly for eyeballing a scenario before a run.
func (s *Server) handleTenantStats(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(tenant.HeaderTenantID)
	if tenantID == "" {
		tenantID = "unknown"
	}
	profile := s.engine.Profile(tenantID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"tenant":     profile.Tenant,
		"error_rate": profile.ErrorRate,
		"latency_range": map[string]any{
			"min": profile.MinLatency.String(),
			"max": profile.MaxLatency.String(),
		},
		"response_size": string(profile.ResponseSize),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("write response", zap.Error(err))
	}
}
