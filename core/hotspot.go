package core

import "github.com/signalsfoundry/region-globe/model"

const (
	hotspotRestScale   = 1.0
	hotspotActiveScale = 1.3
	hotspotEasing      = 0.1
)

// Hotspot is the marker drawn above a region.
type Hotspot struct {
	RegionID string
	Position Vec3
	Scale    float64
}

// NewHotspot places a marker for the region at HotspotRadius.
func NewHotspot(r model.Region) Hotspot {
	return Hotspot{
		RegionID: r.ID,
		Position: Project(r.Position, HotspotRadius),
		Scale:    hotspotRestScale,
	}
}

// Ease moves the marker scale one frame toward its hover/selected size.
func (h *Hotspot) Ease(active bool) {
	target := hotspotRestScale
	if active {
		target = hotspotActiveScale
	}
	h.Scale += (target - h.Scale) * hotspotEasing
}
