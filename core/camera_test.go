package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/region-globe/model"
)

type regionMap map[string]model.Region

func (m regionMap) Region(id string) (model.Region, bool) {
	r, ok := m[id]
	return r, ok
}

func testRegions() regionMap {
	return regionMap{
		"africa": {ID: "africa", Name: "Africa", Position: model.GeoCoordinate{Latitude: 0, Longitude: 20}},
		"europe": {ID: "europe", Name: "Europe", Position: model.GeoCoordinate{Latitude: 50, Longitude: 10}},
		"asia":   {ID: "asia", Name: "Asia", Position: model.GeoCoordinate{Latitude: 30, Longitude: 100}},
	}
}

const frame = time.Second / 60

// runUntilIdle ticks until the animator settles and returns the number of
// ticks it took.
func runUntilIdle(t *testing.T, a *CameraAnimator) int {
	t.Helper()
	for i := 1; i <= 10000; i++ {
		a.Tick(frame)
		if !a.Animating() {
			return i
		}
	}
	t.Fatalf("animator did not settle")
	return 0
}

func TestCameraAnimatorStartsIdleAtOverview(t *testing.T) {
	a := NewCameraAnimator(testRegions(), AnimatorConfig{})
	st := a.State()
	if st.Animating {
		t.Fatalf("new animator should be idle")
	}
	if st.Position != (Vec3{Z: 5}) {
		t.Fatalf("initial position = %#v, want (0,0,5)", st.Position)
	}
	if fwd := st.Forward(); fwd.DistanceTo(Vec3{Z: -1}) > tolerance {
		t.Fatalf("initial forward = %#v, want (0,0,-1)", fwd)
	}
}

func TestCameraAnimatorConvergesMonotonically(t *testing.T) {
	regions := testRegions()
	a := NewCameraAnimator(regions, AnimatorConfig{})

	if !a.SetTarget("africa") {
		t.Fatalf("SetTarget(africa) did not resolve")
	}
	target, lookAt := a.Target()
	wantPos := Project(regions["africa"].Position, ZoomedRadius)
	wantLook := Project(regions["africa"].Position, SurfaceRadius)
	if target != wantPos || lookAt != wantLook {
		t.Fatalf("target = %#v/%#v, want %#v/%#v", target, lookAt, wantPos, wantLook)
	}

	prev := a.State().Position.DistanceTo(target)
	ticks := 0
	for a.Animating() {
		a.Tick(frame)
		ticks++
		if ticks > 10000 {
			t.Fatalf("animator did not settle")
		}
		d := a.State().Position.DistanceTo(target)
		if d > prev+1e-12 {
			t.Fatalf("tick %d: distance grew from %v to %v", ticks, prev, d)
		}
		prev = d
	}
	if prev >= 0.1 {
		t.Fatalf("settled at distance %v, want < 0.1", prev)
	}

	settled := a.State()
	for i := 0; i < 10; i++ {
		a.Tick(frame)
	}
	if a.State() != settled {
		t.Fatalf("idle ticks moved the camera: %#v -> %#v", settled, a.State())
	}
}

func TestCameraAnimatorOrientationTracksRegion(t *testing.T) {
	a := NewCameraAnimator(testRegions(), AnimatorConfig{})
	a.SetTarget("europe")
	runUntilIdle(t, a)

	st := a.State()
	_, lookAt := a.Target()
	want := lookAt.Sub(st.Position).Normalize()
	if dot := st.Forward().Dot(want); dot < 0.95 {
		t.Fatalf("camera forward %#v not aligned with %#v (dot %v)", st.Forward(), want, dot)
	}
}

func TestCameraAnimatorUnknownRegionMatchesNone(t *testing.T) {
	a := NewCameraAnimator(testRegions(), AnimatorConfig{})
	b := NewCameraAnimator(testRegions(), AnimatorConfig{})

	if a.SetTarget("atlantis") {
		t.Fatalf("unknown region should not resolve")
	}
	b.SetTarget(model.NoSelection)

	pa, la := a.Target()
	pb, lb := b.Target()
	if pa != pb || la != lb {
		t.Fatalf("unknown target %#v/%#v != none target %#v/%#v", pa, la, pb, lb)
	}
	if !a.Animating() {
		t.Fatalf("unknown region should still start an animation")
	}
}

func TestCameraAnimatorSelectionSequenceEndsAtOverview(t *testing.T) {
	regions := testRegions()
	a := NewCameraAnimator(regions, AnimatorConfig{})

	for _, sel := range []model.Selection{"africa", "asia", model.NoSelection} {
		a.SetTarget(sel)
		runUntilIdle(t, a)
	}

	st := a.State()
	overview := a.Config().OverviewPosition
	if st.Position != overview {
		t.Fatalf("final position = %#v, want overview %#v", st.Position, overview)
	}
	for _, id := range []string{"africa", "asia"} {
		p := Project(regions[id].Position, ZoomedRadius)
		if st.Position.DistanceTo(p) < 0.1 {
			t.Fatalf("camera ended at %s", id)
		}
	}
}

func TestCameraAnimatorRetargetMidFlight(t *testing.T) {
	a := NewCameraAnimator(testRegions(), AnimatorConfig{})
	a.SetTarget("africa")
	for i := 0; i < 5; i++ {
		a.Tick(frame)
	}
	a.SetTarget("europe")
	if !a.Animating() {
		t.Fatalf("retarget should keep animating")
	}
	runUntilIdle(t, a)

	europe := Project(testRegions()["europe"].Position, ZoomedRadius)
	if d := a.State().Position.DistanceTo(europe); d >= 0.1 {
		t.Fatalf("camera %v away from europe after retarget", d)
	}
}

func TestCameraAnimatorEvents(t *testing.T) {
	a := NewCameraAnimator(testRegions(), AnimatorConfig{})
	var events []AnimationEvent
	a.AddListener(func(ev AnimationEvent) { events = append(events, ev) })

	a.SetTarget("asia")
	runUntilIdle(t, a)
	a.Tick(frame)

	if len(events) != 2 || events[0] != AnimationStarted || events[1] != AnimationCompleted {
		t.Fatalf("events = %v, want [started completed]", events)
	}
}

func TestCameraAnimatorFrameRateIndependent(t *testing.T) {
	fixed := NewCameraAnimator(testRegions(), AnimatorConfig{})
	scaled := NewCameraAnimator(testRegions(), AnimatorConfig{FrameRateIndependent: true})

	fixed.SetTarget("africa")
	scaled.SetTarget("africa")

	// At the reference frame rate both modes take the same step.
	fixed.Tick(frame)
	scaled.Tick(frame)
	if d := fixed.State().Position.DistanceTo(scaled.State().Position); d > 1e-6 {
		t.Fatalf("reference-rate step differs by %v", d)
	}

	// Two frames' worth of time in one call covers two steps.
	target, _ := scaled.Target()
	before := scaled.State().Position.DistanceTo(target)
	scaled.Tick(2 * frame)
	after := scaled.State().Position.DistanceTo(target)
	if want := before * 0.92 * 0.92; math.Abs(after-want) > 1e-6 {
		t.Fatalf("double-frame step left %v, want %v", after, want)
	}
}
