package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/region-globe/model"
)

const tolerance = 1e-9

func TestProjectKeepsRadius(t *testing.T) {
	for _, radius := range []float64{0.5, 2, 3.5, 6371} {
		for lat := -90.0; lat <= 90; lat += 15 {
			for lng := -180.0; lng <= 180; lng += 30 {
				p := Project(model.GeoCoordinate{Latitude: lat, Longitude: lng}, radius)
				if got := p.Norm(); math.Abs(got-radius) > tolerance*radius {
					t.Fatalf("Project(%v,%v,%v) norm = %v, want %v", lat, lng, radius, got, radius)
				}
			}
		}
	}
}

func TestProjectNorthPoleIgnoresLongitude(t *testing.T) {
	ref := Project(model.GeoCoordinate{Latitude: 90, Longitude: 0}, 2)
	for lng := -180.0; lng <= 180; lng += 45 {
		p := Project(model.GeoCoordinate{Latitude: 90, Longitude: lng}, 2)
		if p.DistanceTo(ref) > tolerance {
			t.Fatalf("pole point for lng %v = %#v, want %#v", lng, p, ref)
		}
	}
	if math.Abs(ref.Y-2) > tolerance {
		t.Fatalf("north pole should sit on +Y, got %#v", ref)
	}
}

func TestProjectSeamOnAntimeridian(t *testing.T) {
	// lat 0, lng 0 lands on +X; the antimeridian lands on -X.
	p := Project(model.GeoCoordinate{Latitude: 0, Longitude: 0}, 1)
	if math.Abs(p.X-1) > tolerance || math.Abs(p.Y) > tolerance || math.Abs(p.Z) > tolerance {
		t.Fatalf("Project(0,0) = %#v, want (1,0,0)", p)
	}
	q := Project(model.GeoCoordinate{Latitude: 0, Longitude: 180}, 1)
	if math.Abs(q.X+1) > tolerance {
		t.Fatalf("Project(0,180) = %#v, want (-1,0,0)", q)
	}
}

func TestUnprojectRoundTrip(t *testing.T) {
	cases := []model.GeoCoordinate{
		{Latitude: 15.4, Longitude: -61.3},
		{Latitude: 0, Longitude: 20},
		{Latitude: 50, Longitude: 10},
		{Latitude: 30, Longitude: 100},
		{Latitude: -45, Longitude: -170},
	}
	for _, c := range cases {
		got := Unproject(Project(c, 2))
		if math.Abs(got.Latitude-c.Latitude) > 1e-9 || math.Abs(got.Longitude-c.Longitude) > 1e-9 {
			t.Errorf("Unproject(Project(%v)) = %v", c, got)
		}
	}
}

func TestFacesCamera(t *testing.T) {
	camera := Vec3{X: 0, Y: 0, Z: 5}
	front := Vec3{X: 0, Y: 0, Z: 2}
	back := Vec3{X: 0, Y: 0, Z: -2}

	if !FacesCamera(front, camera) {
		t.Errorf("expected point facing the camera to be visible")
	}
	if FacesCamera(back, camera) {
		t.Errorf("expected far side point to be hidden")
	}
}

func TestElevationDegrees_Overhead(t *testing.T) {
	obs := Vec3{X: 2, Y: 0, Z: 0}
	if got := ElevationDegrees(obs, Vec3{X: 5, Y: 0, Z: 0}); math.Abs(got-90) > 1e-9 {
		t.Fatalf("ElevationDegrees overhead = %v, want 90", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{X: 0, Y: 0, Z: 0}
	b := Vec3{X: 10, Y: -10, Z: 4}
	if got := a.Lerp(b, 0.5); got != (Vec3{X: 5, Y: -5, Z: 2}) {
		t.Fatalf("Lerp = %#v", got)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Fatalf("Lerp(1) = %#v, want %#v", got, b)
	}
}
