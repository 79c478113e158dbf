package core

import (
	"github.com/signalsfoundry/region-globe/model"
)

// Triangle is one fill face, wound (apex, i, i+1).
type Triangle [3]Vec3

// CountryMesh is the render description of a single polygon ring.
//
// FillTriangles and BorderLoop are the logical output. Vertices, Normals and
// Indices carry the same fill as indexed buffers so a renderer can upload
// them directly. A mesh is never mutated after it is built.
type CountryMesh struct {
	FillTriangles []Triangle
	BorderLoop    []Vec3

	Vertices []Vec3
	Normals  []Vec3
	Indices  []uint32
}

// IsEmpty reports whether the mesh has neither fill nor border.
func (m CountryMesh) IsEmpty() bool {
	return len(m.FillTriangles) == 0 && len(m.BorderLoop) == 0
}

// BuildCountryMesh projects a ring onto the sphere and tessellates it as a
// triangle fan around its first vertex.
//
// The fan is only correct for convex rings or rings that are star-shaped
// around the first vertex; concave outlines may fill outside their border.
// Rings with fewer than three distinct points produce an empty mesh.
func BuildCountryMesh(ring model.PolygonRing, radius float64) CountryMesh {
	if len(ring) < 3 {
		return CountryMesh{}
	}

	points := make([]Vec3, 0, len(ring)+1)
	for _, c := range ring {
		points = append(points, Project(c, radius))
	}

	first := points[0]
	if first.DistanceTo(points[len(points)-1]) > closeEpsilon {
		points = append(points, first)
	}

	// The closed list ends with a copy of the apex; the fan runs over the
	// open list.
	open := points[:len(points)-1]
	if countDistinct(open, 3) < 3 {
		return CountryMesh{}
	}

	n := len(open)
	mesh := CountryMesh{
		FillTriangles: make([]Triangle, 0, n-2),
		BorderLoop:    append([]Vec3(nil), points...),
		Vertices:      append([]Vec3(nil), open...),
		Normals:       make([]Vec3, n),
		Indices:       make([]uint32, 0, 3*(n-2)),
	}

	for i := 1; i < n-1; i++ {
		mesh.FillTriangles = append(mesh.FillTriangles, Triangle{open[0], open[i], open[i+1]})
		mesh.Indices = append(mesh.Indices, 0, uint32(i), uint32(i+1))
	}

	// Every vertex lies on a sphere centred at the origin, so the outward
	// normal is the normalised position.
	for i, p := range open {
		mesh.Normals[i] = p.Normalize()
	}

	return mesh
}

// BuildMultiPolygonMesh meshes each outer ring independently. Holes are not
// subtracted, so they render filled.
func BuildMultiPolygonMesh(rings []model.PolygonRing, radius float64) []CountryMesh {
	meshes := make([]CountryMesh, 0, len(rings))
	for _, ring := range rings {
		meshes = append(meshes, BuildCountryMesh(ring, radius))
	}
	return meshes
}

// countDistinct counts pairwise-distinct points up to limit.
func countDistinct(points []Vec3, limit int) int {
	distinct := make([]Vec3, 0, limit)
	for _, p := range points {
		seen := false
		for _, d := range distinct {
			if p.DistanceTo(d) <= closeEpsilon {
				seen = true
				break
			}
		}
		if seen {
			continue
		}
		distinct = append(distinct, p)
		if len(distinct) == limit {
			break
		}
	}
	return len(distinct)
}
