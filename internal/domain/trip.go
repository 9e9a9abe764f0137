package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WaypointRole distinguishes the named points of a trip
type WaypointRole string

const (
	WaypointCurrent WaypointRole = "current"
	WaypointPickup  WaypointRole = "pickup"
	WaypointDropoff WaypointRole = "dropoff"
)

// Waypoint is a named location that is part of the planned route
type Waypoint struct {
	Name string       `json:"name"`
	Lat  float64      `json:"lat"`
	Lng  float64      `json:"lng"`
	Type WaypointRole `json:"type"`
}

// StopType is the kind of halt reported by the planning backend
type StopType string

const (
	StopPickup    StopType = "PICKUP"
	StopDropoff   StopType = "DROPOFF"
	StopFuel      StopType = "FUEL"
	StopRestBreak StopType = "REST_BREAK"
	StopOffDuty   StopType = "OFF_DUTY"
)

// DutyStatus is a log-sheet duty line
type DutyStatus string

const (
	DutyOffDuty          DutyStatus = "OFF_DUTY"
	DutySleeperBerth     DutyStatus = "SLEEPER_BERTH"
	DutyDriving          DutyStatus = "DRIVING"
	DutyOnDutyNotDriving DutyStatus = "ON_DUTY_NOT_DRIVING"
	DutyUnknown          DutyStatus = "UNKNOWN"
)

// DutyStatus maps a stop to the duty line the driver is on while stopped.
func (t StopType) DutyStatus() DutyStatus {
	switch t {
	case StopPickup, StopDropoff, StopFuel:
		return DutyOnDutyNotDriving
	case StopRestBreak, StopOffDuty:
		return DutyOffDuty
	default:
		return DutyUnknown
	}
}

// Stop is an incidental or required halt. Coordinates and mile marker are
// nil when the backend could not place the stop.
type Stop struct {
	Type            StopType `json:"type"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	MileMarker      *float64 `json:"mileMarker"`
	Reason          string   `json:"reason"`
	DurationMinutes float64  `json:"durationMinutes"`
	Location        string   `json:"location"`
}

// HasPosition reports whether the stop can be placed on a map
func (s Stop) HasPosition() bool {
	return s.Lat != nil && s.Lng != nil
}

// Route is the geometry part of a trip plan
type Route struct {
	Polyline      string     `json:"polyline"`
	Waypoints     []Waypoint `json:"waypoints"`
	DistanceMiles float64    `json:"distanceMiles,omitempty"`
	DurationHours float64    `json:"durationHours,omitempty"`
}

// TripPlan is the planning backend response. Schedule and LogSheets are
// produced by the HOS engine and passed through unchanged.
type TripPlan struct {
	Route     Route           `json:"route"`
	Stops     []Stop          `json:"stops"`
	Schedule  json.RawMessage `json:"schedule,omitempty"`
	LogSheets json.RawMessage `json:"logSheets,omitempty"`
}

// TripRequest carries the trip parameters entered by the user
type TripRequest struct {
	CurrentLocation  string  `json:"currentLocation"`
	PickupLocation   string  `json:"pickupLocation"`
	DropoffLocation  string  `json:"dropoffLocation"`
	CurrentCycleUsed float64 `json:"currentCycleUsed"`
}

// Trip is a planned trip held by the service
type Trip struct {
	ID        uuid.UUID   `json:"id"`
	Request   TripRequest `json:"request"`
	Plan      *TripPlan   `json:"plan"`
	View      *MapView    `json:"view,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// UpdateType indicates whether a trip view changed or the trip went away
type UpdateType string

const (
	UpdateView    UpdateType = "view"
	UpdateExpired UpdateType = "expired"
)

// TripUpdate is pushed to clients watching a trip
type TripUpdate struct {
	Type   UpdateType `json:"type"`
	TripID uuid.UUID  `json:"tripId"`
	View   *MapView   `json:"view,omitempty"`
}
