package kb

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/region-globe/model"
)

// DefaultRegions is the catalog the globe ships with.
func DefaultRegions() []model.Region {
	return []model.Region{
		{
			ID:          "caribbean",
			Name:        "Caribbean / Americas",
			Description: "Your Core (Home Base)",
			Position:    model.GeoCoordinate{Latitude: 15.4, Longitude: -61.3},
			GlowColor:   "#00d4ff",
		},
		{
			ID:          "africa",
			Name:        "Africa",
			Description: "Good Energy & Sustainable Systems",
			Position:    model.GeoCoordinate{Latitude: 0, Longitude: 20},
			GlowColor:   "#00ff88",
		},
		{
			ID:          "europe",
			Name:        "Europe",
			Description: "Architecture & Innovation",
			Position:    model.GeoCoordinate{Latitude: 50, Longitude: 10},
			GlowColor:   "#ffd700",
		},
		{
			ID:          "asia",
			Name:        "Asia",
			Description: "Global Commerce & Distribution",
			Position:    model.GeoCoordinate{Latitude: 30, Longitude: 100},
			GlowColor:   "#4da6ff",
		},
		{
			ID:          "global",
			Name:        "Global Impact",
			Description: "Social Impact & Reinvestment",
			Position:    model.GeoCoordinate{Latitude: 0, Longitude: 0},
			GlowColor:   "#ffffff",
		},
	}
}

// regionsJSON is the on-disk layout of a regions file.
type regionsJSON struct {
	Regions []model.Region `json:"regions"`
}

// LoadRegions decodes a JSON regions file into the catalog and returns the
// number of regions added. Invalid or duplicate entries fail the load.
func LoadRegions(c *RegionCatalog, r io.Reader) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("LoadRegions: catalog is nil")
	}

	var payload regionsJSON
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, fmt.Errorf("LoadRegions: decode failed: %w", err)
	}

	added := 0
	for _, region := range payload.Regions {
		if err := c.AddRegion(region); err != nil {
			return added, fmt.Errorf("LoadRegions: %w", err)
		}
		added++
	}
	return added, nil
}

// LoadDefaults adds DefaultRegions to the catalog.
func LoadDefaults(c *RegionCatalog) error {
	for _, r := range DefaultRegions() {
		if err := c.AddRegion(r); err != nil {
			return err
		}
	}
	return nil
}
