package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flencrypto/cfs-platform/internal/domain/types"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// handleHealth reports liveness. The process is live even while the store
// is down; /status carries integration state.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: map[string]string{"status": "ok"}})
}

// handleMetrics serves the custom Prometheus registry.
func handleMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.Envelope{Success: true, Data: s.deps.Status(r.Context())})
}
