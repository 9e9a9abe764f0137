package geometry

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"tripmap/internal/domain"
)

// FeatureCollection exports a view as GeoJSON: one LineString for the route
// (when it has at least two points) followed by Point features for waypoints
// and stop markers.
func FeatureCollection(view domain.MapView) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(boundFromRegion(view.Bounds))

	if len(view.Path) >= 2 {
		line := make(orb.LineString, len(view.Path))
		for i, p := range view.Path {
			line[i] = orb.Point{p.Lng, p.Lat}
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "route"
		f.Properties["points"] = len(view.Path)
		fc.Append(f)
	}

	for _, m := range view.Waypoints {
		f := geojson.NewFeature(orb.Point{m.Waypoint.Lng, m.Waypoint.Lat})
		f.Properties["kind"] = "waypoint"
		f.Properties["role"] = string(m.Waypoint.Type)
		f.Properties["name"] = m.Waypoint.Name
		setStyle(f, m.Style)
		fc.Append(f)
	}

	for _, m := range view.Stops {
		f := geojson.NewFeature(orb.Point{m.Lng, m.Lat})
		f.Properties["kind"] = "stop"
		f.Properties["type"] = string(m.Type)
		f.Properties["location"] = m.Location
		f.Properties["reason"] = m.Reason
		f.Properties["durationMinutes"] = m.DurationMinutes
		if m.MileMarker != nil {
			f.Properties["mileMarker"] = *m.MileMarker
		}
		setStyle(f, m.Style)
		fc.Append(f)
	}

	return fc
}

func setStyle(f *geojson.Feature, s domain.MarkerStyle) {
	f.Properties["label"] = s.Label
	f.Properties["color"] = s.Color
	f.Properties["icon"] = s.Icon
}
