package core

import (
	"context"
	"testing"
	"time"
)

func TestEvent_Label(t *testing.T) {
	e := Event{Tenant: "slumberland", Flow: "browse_products_flow", Operation: "SearchResultItem"}
	want := "slumberland/browse_products_flow/SearchResultItem"
	if got := e.Label(); got != want {
		t.Errorf("Label() = %q, want %q", got, want)
	}
}

func TestEvent_Label_EmptyFlow(t *testing.T) {
	// Lifecycle events (login, discovery) have no flow; the label must
	// still be stable for aggregation.
	e := Event{Tenant: "neverwinter", Operation: "Login"}
	if got := e.Label(); got != "neverwinter//Login" {
		t.Errorf("Label() = %q", got)
	}
}

func TestContextUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), 42)
	if got := UserIDFromContext(ctx); got != 42 {
		t.Errorf("UserIDFromContext() = %d, want 42", got)
	}
}

func TestContextUserID_Missing(t *testing.T) {
	if got := UserIDFromContext(context.Background()); got != 0 {
		t.Errorf("UserIDFromContext() on empty context = %d, want 0", got)
	}
}

func TestFakeClock_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)

	clock.Advance(30 * time.Second)
	clock.Advance(30 * time.Second)

	if got := clock.Since(start); got != time.Minute {
		t.Errorf("Since(start) = %v, want 1m", got)
	}
}

func TestNullReporter_Discards(t *testing.T) {
	// Must not panic; there is nothing else to observe.
	NullReporter.Report(Event{UserID: 1, Success: true})
}
