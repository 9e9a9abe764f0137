package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"tripmap/internal/domain"
	"tripmap/internal/geometry"
	"tripmap/internal/observability"
	"tripmap/internal/polyline"
)

type PolylineHandler struct {
	logger *slog.Logger
}

func NewPolylineHandler(logger *slog.Logger) *PolylineHandler {
	return &PolylineHandler{logger: logger.With("handler", "polyline")}
}

type DecodeRequest struct {
	Polyline string `json:"polyline"`
}

type DecodeResponse struct {
	Points []domain.Coordinate   `json:"points"`
	Count  int                   `json:"count"`
	Bounds domain.BoundingRegion `json:"bounds"`
}

type EncodeRequest struct {
	Points []domain.Coordinate `json:"points"`
}

type EncodeResponse struct {
	Polyline string `json:"polyline"`
}

func (h *PolylineHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req DecodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	observability.PolylineDecodes.Inc()
	points, err := polyline.Decode(req.Polyline)
	if errors.Is(err, polyline.ErrMalformedGeometry) {
		observability.MalformedGeometry.Inc()
		h.logger.Warn("malformed polyline", "error", err, "polyline_length", len(req.Polyline))
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "decode failed")
		return
	}
	observability.DecodedPoints.Observe(float64(len(points)))

	respondJSON(w, http.StatusOK, DecodeResponse{
		Points: points,
		Count:  len(points),
		Bounds: geometry.ComputeBounds(points, nil),
	})
}

func (h *PolylineHandler) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	respondJSON(w, http.StatusOK, EncodeResponse{Polyline: polyline.Encode(req.Points)})
}
