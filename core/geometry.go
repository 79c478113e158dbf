package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/region-globe/model"
)

// Globe radii in scene units. The country layer sits on the surface sphere;
// hotspots and labels float slightly above it so the layers never mix.
const (
	SurfaceRadius = 2.0
	HotspotRadius = 2.1
	LabelRadius   = 2.01
	ZoomedRadius  = 3.5
)

// closeEpsilon is the distance under which two projected points are
// considered the same vertex (sphere-radius units).
const closeEpsilon = 1e-3

const degToRad = math.Pi / 180

// Vec3 is a point or direction in scene space. A Vec3 returned by Project
// is a SpherePoint: it lies on a sphere centred at the origin.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Lerp moves v toward target by factor t (0 keeps v, 1 returns target).
func (v Vec3) Lerp(target Vec3, t float64) Vec3 {
	return Vec3{
		X: v.X + (target.X-v.X)*t,
		Y: v.Y + (target.Y-v.Y)*t,
		Z: v.Z + (target.Z-v.Z)*t,
	}
}

// Normalize returns the unit vector in the direction of v. The zero vector
// is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec3{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

func (v Vec3) mgl() mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }

func fromMgl(m mgl64.Vec3) Vec3 { return Vec3{X: m[0], Y: m[1], Z: m[2]} }

// Project maps a geographic coordinate onto a sphere of the given radius.
//
// Latitude is measured from the pole (colatitude = 90° - lat) and longitude
// is offset by 180° so the texture seam falls on the antimeridian. Out of
// range input still yields a point; validating it is the caller's job.
func Project(coord model.GeoCoordinate, radius float64) Vec3 {
	phi := (90 - coord.Latitude) * degToRad
	theta := (coord.Longitude + 180) * degToRad

	sinPhi := math.Sin(phi)
	return Vec3{
		X: -radius * sinPhi * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// Unproject is the inverse of Project for points off the origin.
func Unproject(p Vec3) model.GeoCoordinate {
	r := p.Norm()
	if r == 0 {
		return model.GeoCoordinate{}
	}
	phi := math.Acos(clamp(p.Y/r, -1, 1))
	theta := math.Atan2(p.Z, -p.X)

	lng := theta/degToRad - 180
	if lng < -180 {
		lng += 360
	}
	return model.GeoCoordinate{
		Latitude:  90 - phi/degToRad,
		Longitude: lng,
	}
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = local horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := observer.Scale(1 / r)

	cosGamma := clamp(v.Dot(zenith)/vNorm, -1, 1)
	gammaDeg := math.Acos(cosGamma) / degToRad

	return 90.0 - gammaDeg
}

// FacesCamera reports whether a point on the globe surface is on the
// hemisphere visible from the camera position.
func FacesCamera(surfacePoint, camera Vec3) bool {
	return ElevationDegrees(surfacePoint, camera) > 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
