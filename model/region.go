package model

// GeoCoordinate is a latitude/longitude pair in degrees.
type GeoCoordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the usual degree ranges.
func (c GeoCoordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Region is a selectable area of the globe that the camera can zoom to.
type Region struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Position    GeoCoordinate `json:"position"`
	GlowColor   string        `json:"glowColor,omitempty"`
}

// Selection names the region the visitor picked. NoSelection means the
// overview is shown.
type Selection string

// NoSelection is the empty selection.
const NoSelection Selection = ""

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool { return s == NoSelection }
