package geometry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tripmap/internal/domain"
)

// Styles holds the marker lookup tables. A Styles value is read-only once
// built and may be shared between goroutines.
type Styles struct {
	Generic   domain.MarkerStyle
	Stops     map[domain.StopType]domain.MarkerStyle
	Waypoints map[domain.WaypointRole]domain.MarkerStyle
	Duty      map[domain.DutyStatus]domain.MarkerStyle
}

func DefaultStyles() *Styles {
	return &Styles{
		Generic: domain.MarkerStyle{Label: "Stop", Color: "#9ca3af", Icon: "place"},
		Stops: map[domain.StopType]domain.MarkerStyle{
			domain.StopPickup:    {Label: "Pickup", Color: "#10b981", Icon: "inventory"},
			domain.StopDropoff:   {Label: "Dropoff", Color: "#ef4444", Icon: "flag"},
			domain.StopFuel:      {Label: "Fuel", Color: "#f59e0b", Icon: "local_gas_station"},
			domain.StopRestBreak: {Label: "Rest Break", Color: "#3b82f6", Icon: "free_breakfast"},
			domain.StopOffDuty:   {Label: "Off Duty", Color: "#6b7280", Icon: "hotel"},
		},
		Waypoints: map[domain.WaypointRole]domain.MarkerStyle{
			domain.WaypointCurrent: {Label: "Start", Color: "#2563eb", Icon: "my_location"},
			domain.WaypointPickup:  {Label: "Pickup", Color: "#10b981", Icon: "inventory"},
			domain.WaypointDropoff: {Label: "Dropoff", Color: "#ef4444", Icon: "flag"},
		},
		Duty: map[domain.DutyStatus]domain.MarkerStyle{
			domain.DutyOffDuty:          {Label: "Off Duty", Color: "#9e9e9e", Icon: "hotel"},
			domain.DutySleeperBerth:     {Label: "Sleeper Berth", Color: "#7e57c2", Icon: "bed"},
			domain.DutyDriving:          {Label: "Driving", Color: "#4caf50", Icon: "local_shipping"},
			domain.DutyOnDutyNotDriving: {Label: "On Duty (Not Driving)", Color: "#ff9800", Icon: "work"},
		},
	}
}

func (s *Styles) Stop(t domain.StopType) domain.MarkerStyle {
	if style, ok := s.Stops[t]; ok {
		return style
	}
	return s.Generic
}

func (s *Styles) Waypoint(r domain.WaypointRole) domain.MarkerStyle {
	if style, ok := s.Waypoints[r]; ok {
		return style
	}
	return s.Generic
}

func (s *Styles) DutyStatus(d domain.DutyStatus) domain.MarkerStyle {
	if style, ok := s.Duty[d]; ok {
		return style
	}
	return s.Generic
}

type styleFile struct {
	Generic   *domain.MarkerStyle                        `yaml:"generic"`
	Stops     map[domain.StopType]domain.MarkerStyle     `yaml:"stops"`
	Waypoints map[domain.WaypointRole]domain.MarkerStyle `yaml:"waypoints"`
	Duty      map[domain.DutyStatus]domain.MarkerStyle   `yaml:"duty"`
}

// LoadStyles reads YAML overrides on top of DefaultStyles. Fields left empty
// in the file keep their default value. An empty path returns the defaults.
func LoadStyles(path string) (*Styles, error) {
	styles := DefaultStyles()
	if path == "" {
		return styles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read styles file: %w", err)
	}

	var f styleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse styles file: %w", err)
	}

	if f.Generic != nil {
		styles.Generic = mergeStyle(styles.Generic, *f.Generic)
	}
	for k, v := range f.Stops {
		styles.Stops[k] = mergeStyle(styles.Stop(k), v)
	}
	for k, v := range f.Waypoints {
		styles.Waypoints[k] = mergeStyle(styles.Waypoint(k), v)
	}
	for k, v := range f.Duty {
		styles.Duty[k] = mergeStyle(styles.DutyStatus(k), v)
	}

	return styles, nil
}

func mergeStyle(base, override domain.MarkerStyle) domain.MarkerStyle {
	if override.Label != "" {
		base.Label = override.Label
	}
	if override.Color != "" {
		base.Color = override.Color
	}
	if override.Icon != "" {
		base.Icon = override.Icon
	}
	return base
}
