package core

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/region-globe/model"
)

// canonicalForward is the direction an unrotated camera looks along.
var canonicalForward = mgl64.Vec3{0, 0, -1}

// AnimationEvent is reported to listeners when the animator changes state.
type AnimationEvent int

const (
	// AnimationStarted fires on every SetTarget call.
	AnimationStarted AnimationEvent = iota
	// AnimationCompleted fires once the camera settles on its target.
	AnimationCompleted
)

func (e AnimationEvent) String() string {
	switch e {
	case AnimationStarted:
		return "started"
	case AnimationCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// RegionLookup resolves region IDs to regions.
type RegionLookup interface {
	Region(id string) (model.Region, bool)
}

// AnimatorConfig parameterises the camera easing.
type AnimatorConfig struct {
	// SurfaceRadius is where the camera looks when zoomed on a region.
	SurfaceRadius float64
	// ZoomedRadius is where the camera sits when zoomed on a region.
	ZoomedRadius float64

	OverviewPosition Vec3
	OverviewLookAt   Vec3

	// Smoothing is the fraction of the remaining distance covered per tick.
	Smoothing float64
	// ArrivalThreshold ends the animation once the camera is this close.
	ArrivalThreshold float64

	// FrameRateIndependent rescales Smoothing by the tick delta so that a
	// tick of 1/ReferenceFrameRate seconds covers exactly Smoothing. When
	// false the factor is applied per call regardless of elapsed time.
	FrameRateIndependent bool
	ReferenceFrameRate   float64
}

// DefaultAnimatorConfig returns the settings the globe ships with.
func DefaultAnimatorConfig() AnimatorConfig {
	return AnimatorConfig{
		SurfaceRadius:      SurfaceRadius,
		ZoomedRadius:       ZoomedRadius,
		OverviewPosition:   Vec3{X: 0, Y: 0, Z: 5},
		OverviewLookAt:     Vec3{},
		Smoothing:          0.08,
		ArrivalThreshold:   0.1,
		ReferenceFrameRate: 60,
	}
}

// CameraState is a copy of the animator's camera. Orientation is the
// rotation applied to a camera looking down -Z.
type CameraState struct {
	Position    Vec3
	LookAt      Vec3
	Orientation mgl64.Quat
	Animating   bool
}

// Forward returns the direction the camera is looking along.
func (s CameraState) Forward() Vec3 {
	return fromMgl(s.Orientation.Rotate(canonicalForward))
}

// CameraAnimator eases a camera toward the selected region or the overview.
//
// It is a two-state machine: Idle, or Animating toward a target. SetTarget
// always (re)enters Animating; Tick advances one frame and drops back to
// Idle on arrival. The animator is not safe for concurrent use.
type CameraAnimator struct {
	cfg     AnimatorConfig
	regions RegionLookup

	state CameraState

	targetPosition Vec3
	targetLookAt   Vec3
	// snapOnArrival is set for overview targets; the camera lands exactly
	// on the overview pose instead of wherever the easing stopped.
	snapOnArrival bool

	listeners []func(AnimationEvent)
}

// NewCameraAnimator returns an idle animator parked at the overview pose.
// A zero config field keeps its default.
func NewCameraAnimator(regions RegionLookup, cfg AnimatorConfig) *CameraAnimator {
	cfg = withDefaults(cfg)
	a := &CameraAnimator{
		cfg:            cfg,
		regions:        regions,
		targetPosition: cfg.OverviewPosition,
		targetLookAt:   cfg.OverviewLookAt,
	}
	a.state = CameraState{
		Position:    cfg.OverviewPosition,
		LookAt:      cfg.OverviewLookAt,
		Orientation: lookRotation(cfg.OverviewPosition, cfg.OverviewLookAt, mgl64.QuatIdent()),
	}
	return a
}

func withDefaults(cfg AnimatorConfig) AnimatorConfig {
	def := DefaultAnimatorConfig()
	if cfg.SurfaceRadius <= 0 {
		cfg.SurfaceRadius = def.SurfaceRadius
	}
	if cfg.ZoomedRadius <= 0 {
		cfg.ZoomedRadius = def.ZoomedRadius
	}
	if cfg.OverviewPosition == (Vec3{}) {
		cfg.OverviewPosition = def.OverviewPosition
	}
	if cfg.Smoothing <= 0 || cfg.Smoothing > 1 {
		cfg.Smoothing = def.Smoothing
	}
	if cfg.ArrivalThreshold <= 0 {
		cfg.ArrivalThreshold = def.ArrivalThreshold
	}
	if cfg.ReferenceFrameRate <= 0 {
		cfg.ReferenceFrameRate = def.ReferenceFrameRate
	}
	return cfg
}

// Config returns the effective configuration.
func (a *CameraAnimator) Config() AnimatorConfig { return a.cfg }

// AddListener registers a callback for animation start/completion.
func (a *CameraAnimator) AddListener(fn func(AnimationEvent)) {
	if fn == nil {
		return
	}
	a.listeners = append(a.listeners, fn)
}

// State returns a copy of the current camera.
func (a *CameraAnimator) State() CameraState { return a.state }

// Animating reports whether a target is still being approached.
func (a *CameraAnimator) Animating() bool { return a.state.Animating }

// Target returns the pose the camera is heading for.
func (a *CameraAnimator) Target() (position, lookAt Vec3) {
	return a.targetPosition, a.targetLookAt
}

// SetTarget points the camera at the selected region, or at the overview
// when nothing (or an unknown region) is selected. It reports whether the
// selection resolved to a region. An in-flight animation is superseded.
func (a *CameraAnimator) SetTarget(sel model.Selection) bool {
	region, ok := a.lookup(sel)
	if ok {
		a.targetPosition = Project(region.Position, a.cfg.ZoomedRadius)
		a.targetLookAt = Project(region.Position, a.cfg.SurfaceRadius)
		a.snapOnArrival = false
	} else {
		a.targetPosition = a.cfg.OverviewPosition
		a.targetLookAt = a.cfg.OverviewLookAt
		a.snapOnArrival = true
	}

	a.state.Animating = true
	a.notify(AnimationStarted)
	return ok
}

func (a *CameraAnimator) lookup(sel model.Selection) (model.Region, bool) {
	if sel.IsNone() || a.regions == nil {
		return model.Region{}, false
	}
	return a.regions.Region(string(sel))
}

// Tick advances the camera by one frame. delta only matters when the
// animator is configured to be frame-rate independent.
func (a *CameraAnimator) Tick(delta time.Duration) {
	if !a.state.Animating {
		return
	}

	distance := a.state.Position.DistanceTo(a.targetPosition)
	t := a.factor(delta)

	a.state.Position = a.state.Position.Lerp(a.targetPosition, t)
	a.state.LookAt = a.state.LookAt.Lerp(a.targetLookAt, t)

	desired := lookRotation(a.state.Position, a.targetLookAt, a.state.Orientation)
	a.state.Orientation = slerpShortest(a.state.Orientation, desired, t)

	if distance >= a.cfg.ArrivalThreshold {
		return
	}

	a.state.Animating = false
	if a.snapOnArrival {
		a.state.Position = a.targetPosition
		a.state.LookAt = a.targetLookAt
		a.state.Orientation = lookRotation(a.targetPosition, a.targetLookAt, a.state.Orientation)
	}
	a.notify(AnimationCompleted)
}

func (a *CameraAnimator) factor(delta time.Duration) float64 {
	f := a.cfg.Smoothing
	if !a.cfg.FrameRateIndependent || delta <= 0 {
		return f
	}
	frames := delta.Seconds() * a.cfg.ReferenceFrameRate
	return 1 - math.Pow(1-f, frames)
}

func (a *CameraAnimator) notify(ev AnimationEvent) {
	for _, fn := range a.listeners {
		fn(ev)
	}
}

// lookRotation returns the rotation taking canonicalForward onto the
// direction from eye to target. When eye and target coincide there is no
// direction and fallback is returned.
func lookRotation(eye, target Vec3, fallback mgl64.Quat) mgl64.Quat {
	dir := target.Sub(eye)
	if dir.Norm() < 1e-9 {
		return fallback
	}
	return mgl64.QuatBetweenVectors(canonicalForward, dir.Normalize().mgl())
}

// slerpShortest interpolates along the shorter arc between two rotations.
func slerpShortest(from, to mgl64.Quat, t float64) mgl64.Quat {
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return mgl64.QuatSlerp(from, to, t)
}
