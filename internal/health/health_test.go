package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealth_AllHealthy(t *testing.T) {
	s := NewServer(0, "v1.2.3", nil)
	s.RegisterCheck("rpc", func(ctx context.Context) (bool, string) { return true, "chain 8453" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.Status != "ok" || status.Version != "v1.2.3" {
		t.Errorf("unexpected status %+v", status)
	}
	if c := status.Checks["rpc"]; !c.Healthy || c.Message != "chain 8453" {
		t.Errorf("unexpected check %+v", c)
	}
}

func TestHealth_Degraded(t *testing.T) {
	s := NewServer(0, "", nil)
	s.RegisterCheck("rpc", func(ctx context.Context) (bool, string) { return true, "" })
	s.RegisterCheck("provider", func(ctx context.Context) (bool, string) { return false, "circuit open" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var status Status
	json.NewDecoder(rec.Body).Decode(&status)
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected not ready, got %d", rec.Code)
	}
}

func TestLive(t *testing.T) {
	s := NewServer(0, "", nil)
	s.RegisterCheck("broken", func(ctx context.Context) (bool, string) { return false, "" })

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "alive" {
		t.Errorf("liveness must ignore checks, got %d %q", rec.Code, rec.Body.String())
	}
}
