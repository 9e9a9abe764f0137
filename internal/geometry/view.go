package geometry

import (
	"tripmap/internal/domain"
	"tripmap/internal/polyline"
)

type Builder struct {
	styles *Styles
	width  int
	height int
}

func NewBuilder(styles *Styles, width, height int) *Builder {
	if styles == nil {
		styles = DefaultStyles()
	}
	return &Builder{
		styles: styles,
		width:  width,
		height: height,
	}
}

// Build turns a plan into its map view. Geometry problems degrade the view
// instead of failing: a malformed polyline yields an empty path, bounds from
// the waypoints alone and GeometryError set.
func (b *Builder) Build(plan *domain.TripPlan) domain.MapView {
	if plan == nil {
		plan = &domain.TripPlan{}
	}

	var geometryErr string
	path, err := polyline.Decode(plan.Route.Polyline)
	if err != nil {
		geometryErr = err.Error()
		path = []domain.Coordinate{}
	}

	bounds := ComputeBounds(path, plan.Route.Waypoints)

	return domain.MapView{
		Path:          path,
		Bounds:        bounds,
		Viewport:      FitViewport(bounds, b.width, b.height),
		Waypoints:     b.styles.WaypointMarkers(plan.Route.Waypoints),
		Stops:         b.styles.ClassifyStops(plan.Stops),
		Itinerary:     b.styles.Itinerary(plan.Stops),
		GeometryError: geometryErr,
	}
}
