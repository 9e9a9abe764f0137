package geometry

import (
	"tripmap/internal/domain"
)

// ClassifyStopsForMap returns markers for the stops that belong on the map,
// styled with the default lookup tables.
func ClassifyStopsForMap(stops []domain.Stop) []domain.StopMarker {
	return DefaultStyles().ClassifyStops(stops)
}

// ClassifyStops keeps stops that have both coordinates and are not pickup or
// dropoff, which already have waypoint markers at the same place.
func (s *Styles) ClassifyStops(stops []domain.Stop) []domain.StopMarker {
	markers := make([]domain.StopMarker, 0, len(stops))
	for _, stop := range stops {
		if !onMap(stop) {
			continue
		}
		markers = append(markers, domain.StopMarker{
			Type:            stop.Type,
			Lat:             *stop.Lat,
			Lng:             *stop.Lng,
			MileMarker:      stop.MileMarker,
			Location:        stop.Location,
			Reason:          stop.Reason,
			DurationMinutes: stop.DurationMinutes,
			Style:           s.Stop(stop.Type),
		})
	}
	return markers
}

func (s *Styles) WaypointMarkers(waypoints []domain.Waypoint) []domain.WaypointMarker {
	markers := make([]domain.WaypointMarker, len(waypoints))
	for i, w := range waypoints {
		markers[i] = domain.WaypointMarker{
			Waypoint: w,
			Style:    s.Waypoint(w.Type),
		}
	}
	return markers
}

// Itinerary lists every stop in order, including the ones that cannot be
// placed on the map.
func (s *Styles) Itinerary(stops []domain.Stop) []domain.ItineraryEntry {
	entries := make([]domain.ItineraryEntry, len(stops))
	for i, stop := range stops {
		duty := stop.Type.DutyStatus()
		entries[i] = domain.ItineraryEntry{
			Sequence:   i + 1,
			Stop:       stop,
			Style:      s.Stop(stop.Type),
			DutyStatus: duty,
			DutyStyle:  s.DutyStatus(duty),
			OnMap:      onMap(stop),
		}
	}
	return entries
}

func onMap(stop domain.Stop) bool {
	if !stop.HasPosition() {
		return false
	}
	return stop.Type != domain.StopPickup && stop.Type != domain.StopDropoff
}
