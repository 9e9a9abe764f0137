package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"tripmap/internal/planner"
	"tripmap/internal/store"
)

type HealthHandler struct {
	planner *planner.Service
	store   *store.Store
}

func NewHealthHandler(p *planner.Service, s *store.Store) *HealthHandler {
	return &HealthHandler{
		planner: p,
		store:   s,
	}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

type ReadyResponse struct {
	Ready      bool      `json:"ready"`
	TripCount  int       `json:"tripCount"`
	ServerTime time.Time `json:"serverTime"`
}

// Readyz reports ready only while the planning backend answers its health
// probe.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ready := h.planner.IsReady()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ReadyResponse{
		Ready:      ready,
		TripCount:  h.store.Count(),
		ServerTime: time.Now(),
	})
}
