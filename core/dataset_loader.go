package core

import (
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/signalsfoundry/region-globe/model"
)

// DefaultMaxCountries caps how many countries are meshed from one dataset.
const DefaultMaxCountries = 200

// nameProperties is the order in which feature properties are tried when
// resolving a display name. Different world datasets use different keys.
var nameProperties = []string{
	"NAME", "name", "NAME_LONG", "NAME_EN", "ADMIN", "ADMIN_A3", "NAME_SORT", "SOVEREIGNT",
}

// LoadCountryDataset decodes a GeoJSON FeatureCollection into polygon parts.
//
// Polygon features yield one part; MultiPolygon features yield one part per
// polygon, flagged IsMultiPart. Features without a polygonal geometry are
// skipped. At most maxCountries countries are kept (<= 0 means
// DefaultMaxCountries). Only decode errors are returned.
func LoadCountryDataset(r io.Reader, maxCountries int) (*model.Dataset, error) {
	if maxCountries <= 0 {
		maxCountries = DefaultMaxCountries
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("LoadCountryDataset: read failed: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(raw)
	if err != nil {
		return nil, fmt.Errorf("LoadCountryDataset: decode failed: %w", err)
	}

	ds := &model.Dataset{}
	for idx, f := range fc.Features {
		if ds.Countries >= maxCountries {
			break
		}
		if f == nil || f.Geometry == nil {
			continue
		}

		id := featureID(f, idx)
		name := CountryName(f)

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			if len(g) == 0 {
				continue
			}
			ds.Parts = append(ds.Parts, partFromPolygon(id, name, g, false))
		case orb.MultiPolygon:
			added := false
			for _, poly := range g {
				if len(poly) == 0 {
					continue
				}
				ds.Parts = append(ds.Parts, partFromPolygon(id, name, poly, true))
				added = true
			}
			if !added {
				continue
			}
		default:
			continue
		}
		ds.Countries++
	}
	return ds, nil
}

// CountryName resolves a feature's display name from the first non-empty
// well-known name property, falling back to "Country <id>".
func CountryName(f *geojson.Feature) string {
	for _, key := range nameProperties {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	if id := idString(f.ID); id != "" {
		return "Country " + id
	}
	return "Country Unknown"
}

func featureID(f *geojson.Feature, idx int) string {
	if id := idString(f.ID); id != "" {
		return id
	}
	return "feature-" + strconv.Itoa(idx)
}

func idString(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func partFromPolygon(id, name string, poly orb.Polygon, multi bool) model.PolygonPart {
	part := model.PolygonPart{
		CountryID:   id,
		CountryName: name,
		OuterRing:   ringFromOrb(poly[0]),
		IsMultiPart: multi,
	}
	for _, hole := range poly[1:] {
		part.Holes = append(part.Holes, ringFromOrb(hole))
	}
	return part
}

func ringFromOrb(r orb.Ring) model.PolygonRing {
	ring := make(model.PolygonRing, 0, len(r))
	for _, p := range r {
		ring = append(ring, model.GeoCoordinate{Latitude: p.Lat(), Longitude: p.Lon()})
	}
	return ring
}

// PartMesh is the mesh of one dataset part.
type PartMesh struct {
	CountryID   string
	CountryName string
	Part        int
	Mesh        CountryMesh
}

// DatasetMeshes is the full static mesh description of a dataset.
type DatasetMeshes struct {
	Meshes []PartMesh
	// Degenerate counts parts whose ring was too small to mesh.
	Degenerate int
}

// BuildDatasetMeshes meshes every part's outer ring in dataset order.
// Degenerate rings are counted and left out.
func BuildDatasetMeshes(ds *model.Dataset, radius float64) DatasetMeshes {
	var out DatasetMeshes
	if ds == nil {
		return out
	}

	meshes := BuildMultiPolygonMesh(ds.OuterRings(), radius)
	partIdx := make(map[string]int, ds.Countries)
	for i, m := range meshes {
		p := ds.Parts[i]
		idx := partIdx[p.CountryID]
		partIdx[p.CountryID] = idx + 1

		if m.IsEmpty() {
			out.Degenerate++
			continue
		}
		out.Meshes = append(out.Meshes, PartMesh{
			CountryID:   p.CountryID,
			CountryName: p.CountryName,
			Part:        idx,
			Mesh:        m,
		})
	}
	return out
}
