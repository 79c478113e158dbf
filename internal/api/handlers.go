// Package api serves the globe scene over HTTP (fiber) and carries the
// request-scoped plumbing shared with the gRPC health server.
package api

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/signalsfoundry/region-globe/core"
	"github.com/signalsfoundry/region-globe/internal/observability"
	"github.com/signalsfoundry/region-globe/internal/scene"
	"github.com/signalsfoundry/region-globe/kb"
	"github.com/signalsfoundry/region-globe/model"
)

// Dependencies are the services the handlers read and drive.
type Dependencies struct {
	Scene   *scene.Scene
	Regions *kb.RegionCatalog
	Metrics *observability.GlobeCollector
	Hub     *Hub
}

// HealthHandler reports liveness and uptime.
func HealthHandler() fiber.Handler {
	startedAt := time.Now()
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"uptime": time.Since(startedAt).String(),
		})
	}
}

type projectResponse struct {
	Coordinate model.GeoCoordinate `json:"coordinate"`
	Radius     float64             `json:"radius"`
	Position   scene.Vec           `json:"position"`
}

// ProjectHandler maps ?lat=&lng=[&radius=] onto the sphere.
func ProjectHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := strconv.ParseFloat(c.Query("lat"), 64)
		if err != nil {
			return errBadRequest(c, "lat must be a number")
		}
		lng, err := strconv.ParseFloat(c.Query("lng"), 64)
		if err != nil {
			return errBadRequest(c, "lng must be a number")
		}
		radius := core.SurfaceRadius
		if raw := c.Query("radius"); raw != "" {
			radius, err = strconv.ParseFloat(raw, 64)
			if err != nil || radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
				return errBadRequest(c, "radius must be a positive number")
			}
		}

		coord := model.GeoCoordinate{Latitude: lat, Longitude: lng}
		if !coord.Valid() {
			return errBadRequest(c, "coordinate out of range")
		}
		return c.JSON(projectResponse{
			Coordinate: coord,
			Radius:     radius,
			Position:   scene.VecFrom(core.Project(coord, radius)),
		})
	}
}

// ListRegionsHandler returns every selectable region sorted by ID.
func ListRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"regions": deps.Regions.ListRegions()})
	}
}

// GetRegionHandler returns one region.
func GetRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		r, ok := deps.Regions.Region(id)
		if !ok {
			return errNotFound(c, "region "+id+" not found")
		}
		return c.JSON(r)
	}
}

// ListCountriesHandler summarises the loaded country layer.
func ListCountriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		countries := deps.Scene.Countries()
		return c.JSON(fiber.Map{"countries": countries, "count": len(countries)})
	}
}

type meshResponse struct {
	CountryID string      `json:"countryId"`
	Part      int         `json:"part"`
	Vertices  []scene.Vec `json:"vertices"`
	Indices   []uint32    `json:"indices"`
	Border    []scene.Vec `json:"border"`
	Triangles int         `json:"triangles"`
}

// CountryMeshHandler returns the render buffers of every part of a country.
func CountryMeshHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var out []meshResponse
		for _, pm := range deps.Scene.Meshes().Meshes {
			if pm.CountryID != id {
				continue
			}
			out = append(out, meshResponse{
				CountryID: pm.CountryID,
				Part:      pm.Part,
				Vertices:  vecs(pm.Mesh.Vertices),
				Indices:   pm.Mesh.Indices,
				Border:    vecs(pm.Mesh.BorderLoop),
				Triangles: len(pm.Mesh.FillTriangles),
			})
		}
		if len(out) == 0 {
			return errNotFound(c, "no mesh for country "+id)
		}
		return c.JSON(fiber.Map{"parts": out})
	}
}

func vecs(in []core.Vec3) []scene.Vec {
	out := make([]scene.Vec, len(in))
	for i, v := range in {
		out[i] = scene.VecFrom(v)
	}
	return out
}

// CameraHandler returns the current scene snapshot.
func CameraHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Scene.Snapshot())
	}
}

type selectRequest struct {
	RegionID string `json:"regionId"`
}

// SelectHandler points the camera at a region. An unknown region still
// returns the camera to the overview, and is reported with resolved=false.
func SelectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		applied, resolved := deps.Scene.Select(c.UserContext(), model.Selection(req.RegionID))
		return c.JSON(fiber.Map{
			"resolved":  resolved,
			"selection": string(applied),
		})
	}
}

// BackHandler clears the selection.
func BackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		deps.Scene.Back(c.UserContext())
		return c.JSON(fiber.Map{"selection": ""})
	}
}

type hoverRequest struct {
	RegionID string `json:"regionId"`
}

// HoverHandler marks a hotspot as hovered; an empty regionId clears it.
func HoverHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req hoverRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.RegionID != "" {
			if _, ok := deps.Regions.Region(req.RegionID); !ok {
				return errNotFound(c, "region "+req.RegionID+" not found")
			}
		}
		deps.Scene.Hover(req.RegionID)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type pointerRequest struct {
	Type string  `json:"type"` // down | move | up
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PointerHandler feeds drag input to the globe rotator.
func PointerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pointerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		switch req.Type {
		case "down":
			deps.Scene.PointerDown(req.X, req.Y)
		case "move":
			deps.Scene.PointerMove(req.X, req.Y)
		case "up":
			deps.Scene.PointerUp()
		default:
			return errBadRequest(c, "type must be one of down, move, up")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
