package coordinator_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gqlswarm/internal/collector"
	"gqlswarm/internal/coordinator"
	"gqlswarm/internal/core"
	"gqlswarm/internal/credentials"
	"gqlswarm/internal/mockserver"
	"gqlswarm/internal/queries"
	"gqlswarm/internal/tenant"
	"gqlswarm/internal/vuser"
)

func startMockBackend(t *testing.T, errorRate float64) *httptest.Server {
	t.Helper()
	table, err := mockserver.NewProfileTable(nil, mockserver.Profile{
		Tenant:       "default",
		ErrorRate:    errorRate,
		MinLatency:   time.Millisecond,
		MaxLatency:   2 * time.Millisecond,
		ErrorMessage: "backend unavailable",
		ResponseSize: mockserver.SizeSmall,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(mockserver.NewServer(mockserver.NewEngine(table, 1), nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testBuilder(endpoint string, client *http.Client) *vuser.Builder {
	catalog, _ := tenant.NewCatalog([]tenant.Config{{TenantID: "slumberland"}})
	return &vuser.Builder{
		Endpoint: endpoint,
		Client:   client,
		Catalog:  catalog,
		Credentials: credentials.NewStaticSource(map[string][]credentials.Credential{
			"slumberland": {{Username: "alice", Password: "pw"}},
		}, nil),
		Queries: queries.Builtin(),
		Policies: []vuser.Policy{{
			Tenant: "slumberland",
			Weight: 1,
			Wait:   vuser.WaitRange{Min: time.Millisecond, Max: 2 * time.Millisecond},
			Flows: []vuser.Flow{{
				Name:   "browse",
				Weight: 1,
				Steps:  []string{vuser.OpSearchResultItem, vuser.OpCart},
			}},
		}},
		Seed: 42,
	}
}

func TestIntegration_UsersAgainstMockBackend(t *testing.T) {
	srv := startMockBackend(t, 0)

	builder := testBuilder(srv.URL, srv.Client())
	factory, err := builder.Factory()
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}

	coll := collector.NewCollector()
	coord := coordinator.NewCoordinator(coll, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	coord.Spawn(ctx, 3, factory)
	coord.Wait()
	coll.Close()

	events := coll.Events()
	if len(events) == 0 {
		t.Fatal("no events collected")
	}

	logins := 0
	flowSteps := 0
	flowStepsOK := 0
	flowTotals := 0
	userIDs := make(map[int]bool)
	for _, e := range events {
		userIDs[e.UserID] = true
		if e.Tenant != "slumberland" {
			t.Errorf("unexpected tenant %q on event %+v", e.Tenant, e)
		}
		switch e.Operation {
		case vuser.OpLogin:
			logins++
			if !e.Success {
				t.Errorf("login failed: %+v", e)
			}
		case vuser.OpSearchResultItem, vuser.OpCart:
			flowSteps++
			if e.Success {
				flowStepsOK++
			}
		case core.FlowTotalOp:
			flowTotals++
		}
	}
	if logins != 3 {
		t.Errorf("expected 3 logins, got %d", logins)
	}
	if len(userIDs) != 3 {
		t.Errorf("expected 3 distinct users, got %d", len(userIDs))
	}
	if flowSteps == 0 {
		t.Fatal("no flow steps executed")
	}
	// The deadline can cut one call short per user; everything else
	// must succeed against a zero-error backend.
	if flowStepsOK < flowSteps-3 {
		t.Errorf("flow steps: %d of %d succeeded", flowStepsOK, flowSteps)
	}
	if flowTotals == 0 {
		t.Error("no flow duration events reported")
	}

	m := coll.Compute()
	if _, ok := m.Labels["slumberland/browse/SearchResultItem"]; !ok {
		t.Errorf("missing label breakdown, have %v", m.Labels)
	}
}

func TestIntegration_FailingBackendAbortsLogins(t *testing.T) {
	srv := startMockBackend(t, 1.0)

	builder := testBuilder(srv.URL, srv.Client())
	factory, err := builder.Factory()
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}

	coll := collector.NewCollector()
	coord := coordinator.NewCoordinator(coll, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	coord.Spawn(ctx, 2, factory)
	coord.Wait()
	coll.Close()

	events := coll.Events()
	if len(events) != 2 {
		t.Fatalf("expected exactly one failed login per user, got %d events: %+v", len(events), events)
	}
	for _, e := range events {
		if e.Operation != vuser.OpLogin || e.Success {
			t.Errorf("unexpected event %+v", e)
		}
		if e.Kind != "http_error" {
			t.Errorf("kind = %q, want http_error", e.Kind)
		}
	}
}
