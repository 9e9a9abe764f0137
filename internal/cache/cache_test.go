package cache

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripmap/internal/domain"
)

func TestKeys(t *testing.T) {
	id := uuid.MustParse("6f9619ff-8b86-d011-b42d-00cf4fc964ff")

	assert.Equal(t, "view:abc", KeyMapView("abc"))
	assert.Equal(t, "trip:6f9619ff-8b86-d011-b42d-00cf4fc964ff", KeyTrip(id))
}

func TestPlanFingerprint(t *testing.T) {
	plan := func(encoded string) *domain.TripPlan {
		return &domain.TripPlan{Route: domain.Route{Polyline: encoded}}
	}

	a, err := PlanFingerprint(plan("_p~iF"))
	require.NoError(t, err)
	b, err := PlanFingerprint(plan("_p~iF"))
	require.NoError(t, err)
	c, err := PlanFingerprint(plan("_p~iG"))
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestEncodeDecode(t *testing.T) {
	path := make([]domain.Coordinate, 500)
	for i := range path {
		path[i] = domain.Coordinate{Lat: 38.5, Lng: -120.2}
	}
	view := domain.MapView{Path: path, GeometryError: ""}

	data, err := encode(view)
	require.NoError(t, err)
	assert.Less(t, len(data), 500*10, "repeated points compress")

	var got domain.MapView
	require.NoError(t, decode(data, &got))
	assert.Equal(t, view, got)

	assert.Error(t, decode([]byte("not gzip"), &got))
}
