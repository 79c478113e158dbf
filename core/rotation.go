package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// InputState is the pointer state owned by the host loop. The host records
// pointer events into it and passes it to GlobeRotator.Tick every frame.
type InputState struct {
	PointerDown bool

	// LastX, LastY are the previous pointer position in screen pixels.
	LastX, LastY float64

	// VelocityX, VelocityY are the pending yaw/pitch increments in radians
	// per frame. Dragging sets them, Tick decays them.
	VelocityX, VelocityY float64
}

// Press starts a drag at the given screen position.
func (in *InputState) Press(x, y float64) {
	in.PointerDown = true
	in.LastX, in.LastY = x, y
}

// Move records pointer motion. It only affects rotation while pressed.
func (in *InputState) Move(x, y, dragFactor float64) {
	if !in.PointerDown {
		return
	}
	in.VelocityX = (x - in.LastX) * dragFactor
	in.VelocityY = (y - in.LastY) * dragFactor
	in.LastX, in.LastY = x, y
}

// Release ends the drag; the globe keeps spinning on its inertia.
func (in *InputState) Release() {
	in.PointerDown = false
}

// RotatorConfig parameterises drag and idle rotation.
type RotatorConfig struct {
	DragFactor    float64
	SlowingFactor float64
	// AutoRotateSpeed is the idle yaw rate in radians per second.
	AutoRotateSpeed float64
	InitialYaw      float64
}

// DefaultRotatorConfig returns the settings the globe ships with.
func DefaultRotatorConfig() RotatorConfig {
	return RotatorConfig{
		DragFactor:      0.003,
		SlowingFactor:   0.92,
		AutoRotateSpeed: 0.05,
		InitialYaw:      -1,
	}
}

const (
	inertiaCutoff    = 0.0001
	autoRotateCutoff = 0.001
)

// GlobeRotator spins the globe group from drag inertia and idle
// auto-rotation. It does nothing while a region is selected.
type GlobeRotator struct {
	cfg RotatorConfig

	yaw, pitch float64
}

// NewGlobeRotator returns a rotator at the configured initial yaw.
func NewGlobeRotator(cfg RotatorConfig) *GlobeRotator {
	def := DefaultRotatorConfig()
	if cfg.DragFactor <= 0 {
		cfg.DragFactor = def.DragFactor
	}
	if cfg.SlowingFactor <= 0 || cfg.SlowingFactor >= 1 {
		cfg.SlowingFactor = def.SlowingFactor
	}
	if cfg.AutoRotateSpeed < 0 {
		cfg.AutoRotateSpeed = def.AutoRotateSpeed
	}
	return &GlobeRotator{cfg: cfg, yaw: cfg.InitialYaw}
}

// Config returns the effective configuration.
func (r *GlobeRotator) Config() RotatorConfig { return r.cfg }

// Rotation returns the current yaw (around Y) and pitch (around X) in radians.
func (r *GlobeRotator) Rotation() (yaw, pitch float64) { return r.yaw, r.pitch }

// Tick advances one frame.
func (r *GlobeRotator) Tick(delta time.Duration, in *InputState, selected bool) {
	if selected || in == nil {
		return
	}

	if math.Abs(in.VelocityX) > inertiaCutoff || math.Abs(in.VelocityY) > inertiaCutoff {
		r.yaw += in.VelocityX
		r.pitch += in.VelocityY
		in.VelocityX *= r.cfg.SlowingFactor
		in.VelocityY *= r.cfg.SlowingFactor
	}

	if !in.PointerDown && math.Abs(in.VelocityX) < autoRotateCutoff {
		r.yaw += delta.Seconds() * r.cfg.AutoRotateSpeed
	}
}

// RotateGlobe maps a point on the unrotated globe into world space for a
// globe group rotated by pitch around X and yaw around Y (X applied last).
func RotateGlobe(p Vec3, yaw, pitch float64) Vec3 {
	m := mgl64.Rotate3DX(pitch).Mul3(mgl64.Rotate3DY(yaw))
	return fromMgl(m.Mul3x1(p.mgl()))
}
