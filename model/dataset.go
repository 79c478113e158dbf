package model

// PolygonRing is an ordered boundary of coordinates. GeoJSON rings repeat
// the first coordinate at the end; unclosed rings are closed when meshed.
type PolygonRing []GeoCoordinate

// PolygonPart is one polygon of a country as delivered by the dataset
// loader. A MultiPolygon country yields several parts with IsMultiPart set.
// Holes are carried for completeness but are never subtracted.
type PolygonPart struct {
	CountryID   string
	CountryName string
	OuterRing   PolygonRing
	Holes       []PolygonRing
	IsMultiPart bool
}

// Dataset is a deserialized country polygon collection.
type Dataset struct {
	Parts []PolygonPart

	// Countries is the number of distinct countries the parts came from.
	Countries int
}

// OuterRings returns the outer ring of every part in order.
func (d Dataset) OuterRings() []PolygonRing {
	rings := make([]PolygonRing, 0, len(d.Parts))
	for _, p := range d.Parts {
		rings = append(rings, p.OuterRing)
	}
	return rings
}
