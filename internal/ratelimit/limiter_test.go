package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_ZeroRPSDoesNotBlock(t *testing.T) {
	rl := NewRateLimiter(0)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("zero RPS should not block, took %v", elapsed)
	}
}

func TestRateLimiter_NilDoesNotBlock(t *testing.T) {
	var rl *RateLimiter
	if err := rl.Wait(context.Background()); err != nil {
		t.Errorf("nil limiter Wait: %v", err)
	}
	rl.SetRate(100) // must not panic
}

func TestRateLimiter_ContextCancelled(t *testing.T) {
	rl := NewRateLimiter(1)
	_ = rl.Wait(context.Background()) // exhaust the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRateLimiter_Pacing(t *testing.T) {
	rl := NewRateLimiter(10)

	ctx := context.Background()
	start := time.Now()
	// 15 draws at 10 RPS: the burst covers 10, the rest wait ~500ms.
	for i := 0; i < 15; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("pacing ineffective, 15 draws in %v", elapsed)
	}
}

func TestRateLimiter_SetRateToUnlimited(t *testing.T) {
	rl := NewRateLimiter(1000)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}

	rl.SetRate(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("unlimited rate should be fast, took %v", elapsed)
	}
}

func TestPacedDoer_PassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	doer := PacedDoer{Next: srv.Client(), Limiter: nil}
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := doer.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPacedDoer_CancelledContext(t *testing.T) {
	rl := NewRateLimiter(1)
	_ = rl.Wait(context.Background()) // exhaust the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doer := PacedDoer{Next: http.DefaultClient, Limiter: rl}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://localhost:0/", nil)
	if _, err := doer.Do(req); err == nil {
		t.Error("expected error once the context is cancelled")
	}
}

func TestRateLimiter_ConcurrentWait(t *testing.T) {
	rl := NewRateLimiter(100)
	ctx := context.Background()

	done := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 10; j++ {
				if err := rl.Wait(ctx); err != nil {
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
