// Package scene hosts the globe: it owns the region catalog view, country
// meshes, camera animator, rotator, hotspots and pointer state, and advances
// them once per frame.
package scene

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/region-globe/core"
	"github.com/signalsfoundry/region-globe/internal/logging"
	"github.com/signalsfoundry/region-globe/internal/observability"
	"github.com/signalsfoundry/region-globe/kb"
	"github.com/signalsfoundry/region-globe/model"
)

// Selection outcomes reported to the metrics recorder.
const (
	OutcomeRegion   = "region"
	OutcomeOverview = "overview"
	OutcomeUnknown  = "unknown"
)

// MetricsRecorder receives scene counters. observability.GlobeCollector
// satisfies it.
type MetricsRecorder interface {
	RecordDataset(parts, degenerate int)
	RecordAnimation(event string, frames int)
	RecordSelection(outcome string)
	SetRegionCount(n int)
}

// Option customises Scene construction.
type Option func(*Scene)

// WithLogger sets the scene logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Scene) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *Scene) {
		s.metrics = m
	}
}

// WithAnimatorConfig overrides the camera easing parameters.
func WithAnimatorConfig(cfg core.AnimatorConfig) Option {
	return func(s *Scene) {
		s.animatorCfg = cfg
	}
}

// WithRotatorConfig overrides the drag and auto-rotate parameters.
func WithRotatorConfig(cfg core.RotatorConfig) Option {
	return func(s *Scene) {
		s.rotatorCfg = cfg
	}
}

// Scene is safe for concurrent use. HTTP handlers call the input methods
// while the frame loop calls Tick.
type Scene struct {
	mu sync.Mutex

	log     logging.Logger
	metrics MetricsRecorder

	regions     *kb.RegionCatalog
	unsubscribe func()

	animatorCfg core.AnimatorConfig
	rotatorCfg  core.RotatorConfig

	animator *core.CameraAnimator
	rotator  *core.GlobeRotator
	input    core.InputState

	selection model.Selection
	hovered   string
	hotspots  []core.Hotspot

	// animFrames counts ticks of the running animation.
	animFrames int

	dataset *model.Dataset
	meshes  core.DatasetMeshes
	labels  []core.CountryLabel
}

// New builds a scene over the region catalog. The camera starts idle at the
// overview pose with nothing selected.
func New(regions *kb.RegionCatalog, opts ...Option) *Scene {
	if regions == nil {
		regions = kb.NewRegionCatalog()
	}
	s := &Scene{
		log:         logging.Noop(),
		regions:     regions,
		animatorCfg: core.DefaultAnimatorConfig(),
		rotatorCfg:  core.DefaultRotatorConfig(),
		selection:   model.NoSelection,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.animator = core.NewCameraAnimator(regions, s.animatorCfg)
	s.animator.AddListener(s.onAnimation)
	s.rotator = core.NewGlobeRotator(s.rotatorCfg)
	s.rebuildHotspots()

	s.unsubscribe = regions.Subscribe(func(kb.Event) {
		s.mu.Lock()
		s.rebuildHotspots()
		s.mu.Unlock()
	})
	return s
}

// Close detaches the scene from its region catalog.
func (s *Scene) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// rebuildHotspots must be called with mu held (or before the scene is shared).
func (s *Scene) rebuildHotspots() {
	prev := make(map[string]float64, len(s.hotspots))
	for _, h := range s.hotspots {
		prev[h.RegionID] = h.Scale
	}

	regions := s.regions.ListRegions()
	s.hotspots = s.hotspots[:0]
	for _, r := range regions {
		h := core.NewHotspot(r)
		if scale, ok := prev[r.ID]; ok {
			h.Scale = scale
		}
		s.hotspots = append(s.hotspots, h)
	}
	if s.metrics != nil {
		s.metrics.SetRegionCount(len(regions))
	}
}

// onAnimation runs inside animator calls, so mu is already held.
func (s *Scene) onAnimation(ev core.AnimationEvent) {
	switch ev {
	case core.AnimationStarted:
		s.animFrames = 0
		if s.metrics != nil {
			s.metrics.RecordAnimation(ev.String(), 0)
		}
	case core.AnimationCompleted:
		if s.metrics != nil {
			s.metrics.RecordAnimation(ev.String(), s.animFrames)
		}
		s.log.Debug(context.Background(), "camera settled",
			logging.String("selection", string(s.selection)),
			logging.Int("frames", s.animFrames),
		)
	}
}

// Select points the camera at a region, or back at the overview for
// NoSelection. An unknown region ID is logged and treated as NoSelection.
// It returns the selection it applied and whether the request resolved to a
// known region or none.
func (s *Scene) Select(ctx context.Context, sel model.Selection) (model.Selection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := s.animator.SetTarget(sel)
	outcome := OutcomeRegion
	switch {
	case sel.IsNone():
		outcome = OutcomeOverview
	case !resolved:
		outcome = OutcomeUnknown
		s.log.Warn(ctx, "unknown region; returning to overview", logging.String("region_id", string(sel)))
		sel = model.NoSelection
	}
	s.selection = sel
	if s.metrics != nil {
		s.metrics.RecordSelection(outcome)
	}

	s.log.Info(ctx, "selection changed",
		logging.String("selection", string(sel)),
		logging.String("outcome", outcome),
	)
	return sel, resolved || outcome == OutcomeOverview
}

// Back clears the selection and returns the camera to the overview.
func (s *Scene) Back(ctx context.Context) {
	s.Select(ctx, model.NoSelection)
}

// Selection returns the current selection.
func (s *Scene) Selection() model.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Hover marks a region's hotspot as hovered. An empty ID clears it.
func (s *Scene) Hover(regionID string) {
	s.mu.Lock()
	s.hovered = regionID
	s.mu.Unlock()
}

// PointerDown starts a drag at screen position (x, y).
func (s *Scene) PointerDown(x, y float64) {
	s.mu.Lock()
	s.input.Press(x, y)
	s.mu.Unlock()
}

// PointerMove feeds a drag sample. It is ignored while the pointer is up.
func (s *Scene) PointerMove(x, y float64) {
	s.mu.Lock()
	s.input.Move(x, y, s.rotator.Config().DragFactor)
	s.mu.Unlock()
}

// PointerUp ends a drag; the globe keeps spinning on its residual velocity.
func (s *Scene) PointerUp() {
	s.mu.Lock()
	s.input.Release()
	s.mu.Unlock()
}

// Tick advances the camera, the globe rotation and the hotspot easing by
// one frame.
func (s *Scene) Tick(delta time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.animator.Animating() {
		s.animFrames++
	}
	s.animator.Tick(delta)
	s.rotator.Tick(delta, &s.input, !s.selection.IsNone())

	for i := range s.hotspots {
		id := s.hotspots[i].RegionID
		s.hotspots[i].Ease(id == s.hovered || model.Selection(id) == s.selection)
	}
}

// LoadDataset decodes a GeoJSON country collection, meshes it at the
// surface radius and replaces the current country layer. On error the
// previous layer is kept.
func (s *Scene) LoadDataset(ctx context.Context, r io.Reader, maxCountries int) error {
	ctx, span := observability.StartSpan(ctx, "scene.LoadDataset",
		attribute.Int("max_countries", maxCountries),
	)
	defer span.End()

	start := time.Now()
	ds, err := core.LoadCountryDataset(r, maxCountries)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("load dataset: %w", err)
	}

	_, meshSpan := observability.StartSpan(ctx, "scene.BuildMeshes",
		attribute.Int("parts", len(ds.Parts)),
	)
	meshes := core.BuildDatasetMeshes(ds, core.SurfaceRadius)
	labels := core.BuildCountryLabels(ds.Parts)
	meshSpan.SetAttributes(
		attribute.Int("meshes", len(meshes.Meshes)),
		attribute.Int("degenerate", meshes.Degenerate),
	)
	meshSpan.End()

	s.mu.Lock()
	s.dataset = ds
	s.meshes = meshes
	s.labels = labels
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordDataset(len(meshes.Meshes), meshes.Degenerate)
	}
	if meshes.Degenerate > 0 {
		s.log.Warn(ctx, "skipped degenerate polygon rings", logging.Int("count", meshes.Degenerate))
	}
	s.log.Info(ctx, "country dataset loaded",
		logging.Int("countries", ds.Countries),
		logging.Int("parts", len(ds.Parts)),
		logging.Int("meshes", len(meshes.Meshes)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Meshes returns the current country meshes. The result shares mesh slices
// with the scene and must not be modified.
func (s *Scene) Meshes() core.DatasetMeshes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meshes
}

// Countries summarises the loaded dataset, one entry per country in
// dataset order.
func (s *Scene) Countries() []CountryView {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := make(map[string]int)
	triangles := make(map[string]int)
	for _, m := range s.meshes.Meshes {
		parts[m.CountryID]++
		triangles[m.CountryID] += len(m.Mesh.FillTriangles)
	}

	out := make([]CountryView, 0, len(s.labels))
	for _, l := range s.labels {
		out = append(out, CountryView{
			ID:        l.CountryID,
			Label:     l.Text,
			Anchor:    l.Anchor,
			Parts:     parts[l.CountryID],
			Triangles: triangles[l.CountryID],
		})
	}
	return out
}

// Snapshot returns a consistent copy of the per-frame state.
func (s *Scene) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	cam := s.animator.State()
	yaw, pitch := s.rotator.Rotation()

	hotspots := make([]HotspotView, 0, len(s.hotspots))
	for _, h := range s.hotspots {
		world := core.RotateGlobe(h.Position, yaw, pitch)
		hotspots = append(hotspots, HotspotView{
			RegionID: h.RegionID,
			Position: VecFrom(world),
			Scale:    h.Scale,
			Visible:  core.FacesCamera(world, cam.Position),
		})
	}

	countries := 0
	if s.dataset != nil {
		countries = s.dataset.Countries
	}
	return Snapshot{
		Camera:     newCameraView(cam),
		Selection:  string(s.selection),
		Hovered:    s.hovered,
		GlobeYaw:   yaw,
		GlobePitch: pitch,
		Hotspots:   hotspots,
		Countries:  countries,
		MeshParts:  len(s.meshes.Meshes),
	}
}
