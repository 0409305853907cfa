package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"

	"github.com/Wasm-Cell/wasmcell/internal/service/lifecycle"
)

// HealthResponse is the JSON response from the /health endpoint.
type HealthResponse struct {
	Status  string            `json:"status"`            // "healthy" or "unhealthy"
	Checks  map[string]string `json:"checks"`            // Component check results
	Version string            `json:"version,omitempty"` // Optional version info
}

// HealthChecker verifies the host is reachable and its Lifecycle Manager
// is responsive.
type HealthChecker struct {
	manager *lifecycle.Manager
	version string
}

// NewHealthChecker creates a HealthChecker over manager. Pass nil for
// manager to report it as unconfigured (used by tests that only exercise
// the plain request/response path).
func NewHealthChecker(manager *lifecycle.Manager, version string) *HealthChecker {
	return &HealthChecker{manager: manager, version: version}
}

// Check performs health checks on all components.
func (h *HealthChecker) Check() HealthResponse {
	checks := make(map[string]string)

	if h.manager != nil {
		// ListComponents acquires the registry's read lock; if this hangs,
		// the lifecycle manager is wedged.
		checks["lifecycle_manager"] = fmt.Sprintf("ok: %d components loaded", len(h.manager.ListComponents()))
	} else {
		checks["lifecycle_manager"] = "not configured"
	}

	checks["goroutines"] = fmt.Sprintf("%d", runtime.NumGoroutine())

	return HealthResponse{
		Status:  "healthy",
		Checks:  checks,
		Version: h.version,
	}
}

// Handler returns an HTTP handler for the health endpoint.
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		health := h.Check()

		w.Header().Set("Content-Type", "application/json")
		if health.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	})
}
