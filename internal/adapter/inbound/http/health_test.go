package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Wasm-Cell/wasmcell/internal/adapter/outbound/engine/fake"
	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
)

func newTestManager(t *testing.T) *lifecycle.Manager {
	t.Helper()
	m, err := lifecycle.New(context.Background(), t.TempDir(), "", fake.New(), nil, nil, nil)
	if err != nil {
		t.Fatalf("lifecycle.New: %v", err)
	}
	return m
}

func TestHealthChecker_Healthy(t *testing.T) {
	hc := NewHealthChecker(newTestManager(t), "test-version")

	health := hc.Check()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want test-version", health.Version)
	}
	if health.Checks["lifecycle_manager"] == "" {
		t.Error("lifecycle_manager check should be present")
	}
}

func TestHealthChecker_NilManager(t *testing.T) {
	hc := NewHealthChecker(nil, "")
	health := hc.Check()

	if health.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", health.Status)
	}
	if health.Checks["lifecycle_manager"] != "not configured" {
		t.Errorf("lifecycle_manager = %q, want 'not configured'", health.Checks["lifecycle_manager"])
	}
}

func TestHealthChecker_ReportsLoadedComponentCount(t *testing.T) {
	m := newTestManager(t)
	src := filepath.Join(t.TempDir(), "svc.wasm")
	if err := os.WriteFile(src, []byte("health-check-component"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, _, err := m.LoadComponent(context.Background(), "file://"+src); err != nil {
		t.Fatalf("LoadComponent: %v", err)
	}

	hc := NewHealthChecker(m, "")
	health := hc.Check()

	if health.Checks["lifecycle_manager"] != "ok: 1 components loaded" {
		t.Errorf("lifecycle_manager = %q, want ok: 1 components loaded", health.Checks["lifecycle_manager"])
	}
}

func TestHealthChecker_Handler_HTTP(t *testing.T) {
	hc := NewHealthChecker(newTestManager(t), "1.0.0")

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	hc.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", rec.Code, http.StatusOK)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", contentType)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("Response status = %q, want healthy", resp.Status)
	}
	if resp.Version != "1.0.0" {
		t.Errorf("Response version = %q, want 1.0.0", resp.Version)
	}
}

func TestHealthChecker_GoroutineCount(t *testing.T) {
	hc := NewHealthChecker(nil, "")
	health := hc.Check()

	if health.Checks["goroutines"] == "" {
		t.Error("goroutines check should be present")
	}
	if health.Checks["goroutines"] == "0" {
		t.Error("goroutines count should be > 0")
	}
}
