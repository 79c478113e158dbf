package scene

import (
	"github.com/signalsfoundry/region-globe/core"
	"github.com/signalsfoundry/region-globe/model"
)

// Vec is the JSON form of a scene-space vector.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// VecFrom converts a core vector.
func VecFrom(v core.Vec3) Vec { return Vec{X: v.X, Y: v.Y, Z: v.Z} }

// CameraView is the JSON form of the camera pose. Orientation is the
// quaternion (x, y, z, w) applied to a camera looking down -Z.
type CameraView struct {
	Position    Vec        `json:"position"`
	LookAt      Vec        `json:"lookAt"`
	Forward     Vec        `json:"forward"`
	Orientation [4]float64 `json:"orientation"`
	Animating   bool       `json:"animating"`
}

func newCameraView(st core.CameraState) CameraView {
	q := st.Orientation
	return CameraView{
		Position:    VecFrom(st.Position),
		LookAt:      VecFrom(st.LookAt),
		Forward:     VecFrom(st.Forward()),
		Orientation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		Animating:   st.Animating,
	}
}

// HotspotView is a region marker in world space.
type HotspotView struct {
	RegionID string    `json:"regionId"`
	Position Vec       `json:"position"`
	Scale    float64   `json:"scale"`
	// Visible is false when the marker is on the far side of the globe.
	Visible bool `json:"visible"`
}

// CountryView summarises one loaded country.
type CountryView struct {
	ID        string              `json:"id"`
	Label     string              `json:"label"`
	Anchor    model.GeoCoordinate `json:"anchor"`
	Parts     int                 `json:"parts"`
	Triangles int                 `json:"triangles"`
}

// Snapshot is a copy of the per-frame scene state.
type Snapshot struct {
	Camera     CameraView    `json:"camera"`
	Selection  string        `json:"selection"`
	Hovered    string        `json:"hovered,omitempty"`
	GlobeYaw   float64       `json:"globeYaw"`
	GlobePitch float64       `json:"globePitch"`
	Hotspots   []HotspotView `json:"hotspots"`
	Countries  int           `json:"countries"`
	MeshParts  int           `json:"meshParts"`
}
