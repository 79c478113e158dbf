package core

import (
	"math"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/signalsfoundry/region-globe/model"
)

// CountryLabel is a short text marker laid flat on the globe.
type CountryLabel struct {
	CountryID string
	Text      string
	Anchor    model.GeoCoordinate
	Position  Vec3
	// Pitch and Yaw orient the label so it faces away from the centre.
	Pitch, Yaw float64
}

// BuildCountryLabel anchors a label at the area centroid of the part's outer
// ring. It returns false for rings that cannot carry a label.
func BuildCountryLabel(part model.PolygonPart) (CountryLabel, bool) {
	if len(part.OuterRing) == 0 {
		return CountryLabel{}, false
	}

	anchor := ringCentroid(part.OuterRing)
	pos := Project(anchor, LabelRadius)

	return CountryLabel{
		CountryID: part.CountryID,
		Text:      AbbreviateName(part.CountryName),
		Anchor:    anchor,
		Position:  pos,
		Pitch:     math.Atan2(pos.Y, math.Sqrt(pos.X*pos.X+pos.Z*pos.Z)),
		Yaw:       math.Atan2(pos.X, pos.Z),
	}, true
}

// BuildCountryLabels returns one label per country, anchored on the first
// part of each country in dataset order.
func BuildCountryLabels(parts []model.PolygonPart) []CountryLabel {
	seen := make(map[string]bool, len(parts))
	labels := make([]CountryLabel, 0, len(parts))
	for _, p := range parts {
		if seen[p.CountryID] {
			continue
		}
		seen[p.CountryID] = true
		if l, ok := BuildCountryLabel(p); ok {
			labels = append(labels, l)
		}
	}
	return labels
}

// AbbreviateName shortens a country name for the text globe: names over ten
// characters keep three letters, others keep two.
func AbbreviateName(name string) string {
	runes := []rune(name)
	switch {
	case len(runes) > 10:
		return strings.ToUpper(string(runes[:3]))
	case len(runes) > 1:
		return strings.ToUpper(string(runes[:2]))
	default:
		return name
	}
}

func ringCentroid(ring model.PolygonRing) model.GeoCoordinate {
	r := make(orb.Ring, 0, len(ring))
	for _, c := range ring {
		r = append(r, orb.Point{c.Longitude, c.Latitude})
	}

	if centroid, area := planar.CentroidArea(orb.Polygon{r}); area != 0 {
		return model.GeoCoordinate{Latitude: centroid.Lat(), Longitude: centroid.Lon()}
	}

	// Degenerate ring: fall back to the vertex mean.
	var sumLat, sumLng float64
	for _, c := range ring {
		sumLat += c.Latitude
		sumLng += c.Longitude
	}
	n := float64(len(ring))
	return model.GeoCoordinate{Latitude: sumLat / n, Longitude: sumLng / n}
}
