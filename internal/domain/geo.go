package domain

// Coordinate is a decoded route point in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingRegion represents a flat lat/lng rectangle
type BoundingRegion struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains checks if a point is within the region
func (r BoundingRegion) Contains(lat, lng float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat &&
		lng >= r.MinLng && lng <= r.MaxLng
}

func (r BoundingRegion) Center() Coordinate {
	return Coordinate{
		Lat: (r.MinLat + r.MaxLat) / 2,
		Lng: (r.MinLng + r.MaxLng) / 2,
	}
}

// IsDegenerate reports a zero-area region, e.g. one built from a single point.
func (r BoundingRegion) IsDegenerate() bool {
	return r.MinLat == r.MaxLat || r.MinLng == r.MaxLng
}
