package domain

// MarkerStyle is the presentation treatment of a map marker or duty line
type MarkerStyle struct {
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
	Icon  string `json:"icon" yaml:"icon"`
}

// WaypointMarker places a waypoint on the map
type WaypointMarker struct {
	Waypoint Waypoint    `json:"waypoint"`
	Style    MarkerStyle `json:"style"`
}

// StopMarker places an incidental stop on the map. Lat and Lng are always set.
type StopMarker struct {
	Type            StopType    `json:"type"`
	Lat             float64     `json:"lat"`
	Lng             float64     `json:"lng"`
	MileMarker      *float64    `json:"mileMarker"`
	Location        string      `json:"location"`
	Reason          string      `json:"reason"`
	DurationMinutes float64     `json:"durationMinutes"`
	Style           MarkerStyle `json:"style"`
}

// ItineraryEntry is one row of the stop list, mapped or not
type ItineraryEntry struct {
	Sequence   int         `json:"sequence"`
	Stop       Stop        `json:"stop"`
	Style      MarkerStyle `json:"style"`
	DutyStatus DutyStatus  `json:"dutyStatus"`
	DutyStyle  MarkerStyle `json:"dutyStyle"`
	OnMap      bool        `json:"onMap"`
}

// Viewport is the centre and zoom that fit a region into a map surface
type Viewport struct {
	Center Coordinate `json:"center"`
	Zoom   int        `json:"zoom"`
}

// MapView is everything the map surface needs to draw a trip
type MapView struct {
	Path          []Coordinate     `json:"path"`
	Bounds        BoundingRegion   `json:"bounds"`
	Viewport      Viewport         `json:"viewport"`
	Waypoints     []WaypointMarker `json:"waypoints"`
	Stops         []StopMarker     `json:"stops"`
	Itinerary     []ItineraryEntry `json:"itinerary"`
	GeometryError string           `json:"geometryError,omitempty"`
}
