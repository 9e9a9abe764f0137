package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tripmap/internal/domain"
	"tripmap/internal/geometry"
	"tripmap/internal/planner"
	"tripmap/internal/store"
	"tripmap/pkg/tripapi"
)

const maxBodyBytes = 1 << 20

type TripHandler struct {
	planner *planner.Service
	logger  *slog.Logger
}

func NewTripHandler(p *planner.Service, logger *slog.Logger) *TripHandler {
	return &TripHandler{
		planner: p,
		logger:  logger.With("handler", "trips"),
	}
}

type TripsResponse struct {
	Trips      []*domain.Trip `json:"trips"`
	Count      int            `json:"count"`
	ServerTime time.Time      `json:"serverTime"`
}

func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.logger.Debug("CreateTrip request", "remote_addr", r.RemoteAddr)

	var req domain.TripRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("CreateTrip bad request", "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		respondPlanError(w, err)
		return
	}

	h.logger.Debug("CreateTrip response",
		"trip_id", trip.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusCreated, trip)
}

func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	trips := h.planner.Trips()

	h.logger.Debug("ListTrips response", "count", len(trips))

	respondJSON(w, http.StatusOK, TripsResponse{
		Trips:      trips,
		Count:      len(trips),
		ServerTime: time.Now(),
	})
}

func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, trip)
}

func (h *TripHandler) ReplanTrip(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trip id")
		return
	}

	var req domain.TripRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("ReplanTrip bad request", "trip_id", id, "error", err)
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := h.planner.Replan(r.Context(), id, req)
	if errors.Is(err, store.ErrTripNotFound) {
		respondError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		respondPlanError(w, err)
		return
	}

	h.logger.Debug("ReplanTrip response",
		"trip_id", trip.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, trip)
}

func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trip id")
		return
	}

	err = h.planner.Delete(r.Context(), id)
	if errors.Is(err, store.ErrTripNotFound) {
		respondError(w, http.StatusNotFound, "trip not found")
		return
	}
	if err != nil {
		h.logger.Error("DeleteTrip failed", "trip_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TripHandler) GetTripMap(w http.ResponseWriter, r *http.Request) {
	trip, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.view(r, trip))
}

func (h *TripHandler) GetTripGeoJSON(w http.ResponseWriter, r *http.Request) {
	trip, ok := h.lookup(w, r)
	if !ok {
		return
	}

	fc := geometry.FeatureCollection(h.view(r, trip))

	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(fc)
}

type ItineraryResponse struct {
	Entries   []domain.ItineraryEntry `json:"entries"`
	Count     int                     `json:"count"`
	Schedule  json.RawMessage         `json:"schedule,omitempty"`
	LogSheets json.RawMessage         `json:"logSheets,omitempty"`
}

func (h *TripHandler) GetTripItinerary(w http.ResponseWriter, r *http.Request) {
	trip, ok := h.lookup(w, r)
	if !ok {
		return
	}

	view := h.view(r, trip)
	resp := ItineraryResponse{
		Entries: view.Itinerary,
		Count:   len(view.Itinerary),
	}
	if trip.Plan != nil {
		resp.Schedule = trip.Plan.Schedule
		resp.LogSheets = trip.Plan.LogSheets
	}

	respondJSON(w, http.StatusOK, resp)
}

// RenderMap builds a view for a posted plan without storing anything.
func (h *TripHandler) RenderMap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var plan domain.TripPlan
	if err := decodeBody(w, r, &plan); err != nil {
		h.logger.Warn("RenderMap bad request", "error", err)
		respondError(w, http.StatusBadRequest, "invalid trip plan")
		return
	}

	view := h.planner.Render(r.Context(), &plan)

	h.logger.Debug("RenderMap response",
		"path_points", len(view.Path),
		"map_stops", len(view.Stops),
		"geometry_error", view.GeometryError,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	respondJSON(w, http.StatusOK, view)
}

func (h *TripHandler) lookup(w http.ResponseWriter, r *http.Request) (*domain.Trip, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid trip id")
		return nil, false
	}

	trip, err := h.planner.Trip(r.Context(), id)
	if err != nil {
		h.logger.Debug("trip lookup failed", "trip_id", id, "error", err)
		respondError(w, http.StatusNotFound, "trip not found")
		return nil, false
	}
	return trip, true
}

func (h *TripHandler) view(r *http.Request, trip *domain.Trip) domain.MapView {
	if trip.View != nil {
		return *trip.View
	}
	return h.planner.Render(r.Context(), trip.Plan)
}

// respondPlanError passes client errors reported by the planning backend
// through and maps everything else to 502.
func respondPlanError(w http.ResponseWriter, err error) {
	var se *tripapi.StatusError
	if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
		msg := se.Message
		if msg == "" {
			msg = http.StatusText(se.StatusCode)
		}
		respondError(w, se.StatusCode, msg)
		return
	}
	respondError(w, http.StatusBadGateway, "trip planning failed")
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dest)
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}
