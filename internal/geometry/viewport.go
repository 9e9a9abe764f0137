package geometry

import (
	"math"

	"tripmap/internal/domain"
)

const (
	tileSize = 256

	MinZoom = 0
	MaxZoom = 15

	// MinSpan is the smallest extent in degrees a region is given on each
	// axis before fitting. A single-point region becomes a small square
	// around the point.
	MinSpan = 0.02
)

// PadRegion widens any axis narrower than MinSpan around its centre.
func PadRegion(r domain.BoundingRegion) domain.BoundingRegion {
	c := r.Center()
	if r.MaxLat-r.MinLat < MinSpan {
		r.MinLat = c.Lat - MinSpan/2
		r.MaxLat = c.Lat + MinSpan/2
	}
	if r.MaxLng-r.MinLng < MinSpan {
		r.MinLng = c.Lng - MinSpan/2
		r.MaxLng = c.Lng + MinSpan/2
	}
	return r
}

// FitViewport returns the centre and the largest Web Mercator (slippy map)
// zoom at which the region fits a width x height pixel surface.
func FitViewport(r domain.BoundingRegion, width, height int) domain.Viewport {
	if r.IsDegenerate() {
		r = PadRegion(r)
	}

	latFraction := (mercatorY(r.MaxLat) - mercatorY(r.MinLat)) / math.Pi
	lngFraction := (r.MaxLng - r.MinLng) / 360.0

	zoom := min(
		zoomFor(height, latFraction),
		zoomFor(width, lngFraction),
		MaxZoom,
	)
	if zoom < MinZoom {
		zoom = MinZoom
	}

	return domain.Viewport{
		Center: r.Center(),
		Zoom:   zoom,
	}
}

// mercatorY is half the projected y of a latitude, clamped to the square
// world used by slippy map tiles.
func mercatorY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180.0)
	y := math.Log((1+sin)/(1-sin)) / 2
	return math.Max(math.Min(y, math.Pi), -math.Pi) / 2
}

func zoomFor(px int, fraction float64) int {
	if px <= 0 {
		return MinZoom
	}
	if fraction <= 0 {
		return MaxZoom
	}
	return int(math.Floor(math.Log2(float64(px) / tileSize / fraction)))
}
