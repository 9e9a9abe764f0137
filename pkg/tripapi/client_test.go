package tripapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmap/internal/domain"
)

const planResponse = `{
  "route": {
    "polyline": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@",
    "waypoints": [
      {"name": "Sacramento, CA", "lat": 38.5, "lng": -120.2, "type": "current"},
      {"name": "Coos Bay, OR", "lat": 43.252, "lng": -126.453, "type": "dropoff"}
    ],
    "distanceMiles": 412.5
  },
  "stops": [
    {"type": "FUEL", "lat": 40.7, "lng": -120.95, "mileMarker": 180, "reason": "Fuel every 1000 miles", "durationMinutes": 30, "location": "Susanville, CA"},
    {"type": "REST_BREAK", "lat": null, "lng": null, "mileMarker": null, "reason": "30-minute break", "durationMinutes": 30, "location": "I-5"}
  ],
  "schedule": [{"day": 1}],
  "logSheets": [{"date": "2026-10-14", "image": "/media/logs/1.png"}]
}`

func TestPlan(t *testing.T) {
	var got domain.TripRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, planPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(planResponse))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", 5*time.Second)
	req := domain.TripRequest{
		CurrentLocation:  "Sacramento, CA",
		PickupLocation:   "Reno, NV",
		DropoffLocation:  "Coos Bay, OR",
		CurrentCycleUsed: 10.5,
	}

	plan, err := c.Plan(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC_mqNvxq`@", plan.Route.Polyline)
	require.Len(t, plan.Route.Waypoints, 2)
	assert.Equal(t, domain.WaypointDropoff, plan.Route.Waypoints[1].Type)
	assert.Equal(t, 412.5, plan.Route.DistanceMiles)

	require.Len(t, plan.Stops, 2)
	assert.Equal(t, domain.StopFuel, plan.Stops[0].Type)
	require.NotNil(t, plan.Stops[0].MileMarker)
	assert.Equal(t, 180.0, *plan.Stops[0].MileMarker)
	assert.Nil(t, plan.Stops[1].Lat)
	assert.Nil(t, plan.Stops[1].Lng)
	assert.False(t, plan.Stops[1].HasPosition())

	assert.JSONEq(t, `[{"day": 1}]`, string(plan.Schedule))
	assert.JSONEq(t, `[{"date": "2026-10-14", "image": "/media/logs/1.png"}]`, string(plan.LogSheets))
}

func TestPlanStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "could not geocode pickup location"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).Plan(context.Background(), domain.TripRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackendStatus)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, "could not geocode pickup location", se.Message)
}

func TestPlanDetailMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail": "routing provider unavailable"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).Plan(context.Background(), domain.TripRequest{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "routing provider unavailable", se.Message)
	assert.Contains(t, err.Error(), "500")
}

func TestPlanBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"route":`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, 5*time.Second).Plan(context.Background(), domain.TripRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestPing(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, healthPath, r.URL.Path)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	assert.NoError(t, c.Ping(context.Background()))

	healthy.Store(false)
	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrBackendStatus)
}
