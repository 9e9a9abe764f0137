package geometry

import (
	"github.com/paulmach/orb"

	"tripmap/internal/domain"
)

// DefaultRegion covers the contiguous United States. It is used whenever
// there is nothing to fit.
var DefaultRegion = domain.BoundingRegion{
	MinLat: 25,
	MaxLat: 49,
	MinLng: -125,
	MaxLng: -66,
}

// ComputeBounds returns the smallest flat lat/lng rectangle holding every
// route point and waypoint. No projection or antimeridian handling is done,
// which is fine at road-trip scale.
func ComputeBounds(points []domain.Coordinate, waypoints []domain.Waypoint) domain.BoundingRegion {
	if len(points) == 0 && len(waypoints) == 0 {
		return DefaultRegion
	}

	var b orb.Bound
	empty := true
	extend := func(lat, lng float64) {
		p := orb.Point{lng, lat}
		if empty {
			b = p.Bound()
			empty = false
			return
		}
		b = b.Extend(p)
	}

	for _, p := range points {
		extend(p.Lat, p.Lng)
	}
	for _, w := range waypoints {
		extend(w.Lat, w.Lng)
	}

	return regionFromBound(b)
}

func regionFromBound(b orb.Bound) domain.BoundingRegion {
	return domain.BoundingRegion{
		MinLat: b.Min.Lat(),
		MaxLat: b.Max.Lat(),
		MinLng: b.Min.Lon(),
		MaxLng: b.Max.Lon(),
	}
}

func boundFromRegion(r domain.BoundingRegion) orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.MinLng, r.MinLat},
		Max: orb.Point{r.MaxLng, r.MaxLat},
	}
}
