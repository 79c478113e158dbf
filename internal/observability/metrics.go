package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// GlobeCollector bundles Prometheus metrics for the globe scene and its
// HTTP/gRPC surfaces.
type GlobeCollector struct {
	gatherer prometheus.Gatherer

	MeshBuilds      prometheus.Counter
	MeshParts       prometheus.Gauge
	DegenerateRings prometheus.Counter
	Regions         prometheus.Gauge

	Animations      *prometheus.CounterVec
	AnimationFrames prometheus.Histogram
	Selections      *prometheus.CounterVec

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
	RPCRequests   *prometheus.CounterVec
	RPCDurations  *prometheus.HistogramVec
}

// NewGlobeCollector registers globe metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil. Registering twice
// against the same registry returns the already registered collectors.
func NewGlobeCollector(reg prometheus.Registerer) (*GlobeCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &GlobeCollector{gatherer: gatherer}
	var err error

	if c.MeshBuilds, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_mesh_builds_total",
		Help: "Number of times a country dataset was meshed.",
	}), "globe_mesh_builds_total"); err != nil {
		return nil, err
	}
	if c.MeshParts, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_mesh_parts",
		Help: "Number of non-empty country meshes in the current dataset.",
	}), "globe_mesh_parts"); err != nil {
		return nil, err
	}
	if c.DegenerateRings, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "globe_degenerate_rings_total",
		Help: "Polygon rings skipped because they had fewer than three distinct points.",
	}), "globe_degenerate_rings_total"); err != nil {
		return nil, err
	}
	if c.Regions, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "globe_regions",
		Help: "Number of selectable regions in the catalog.",
	}), "globe_regions"); err != nil {
		return nil, err
	}
	if c.Animations, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_camera_animations_total",
		Help: "Camera animation transitions, labeled by event (started, completed).",
	}, []string{"event"}), "globe_camera_animations_total"); err != nil {
		return nil, err
	}
	if c.AnimationFrames, err = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "globe_camera_animation_frames",
		Help:    "Frames taken by completed camera animations.",
		Buckets: []float64{1, 5, 10, 20, 30, 45, 60, 90, 120, 240},
	}), "globe_camera_animation_frames"); err != nil {
		return nil, err
	}
	if c.Selections, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_selections_total",
		Help: "Selections applied to the camera, labeled by outcome (region, overview, unknown).",
	}, []string{"outcome"}), "globe_selections_total"); err != nil {
		return nil, err
	}
	if c.HTTPRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_http_requests_total",
		Help: "Handled HTTP requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"}), "globe_http_requests_total"); err != nil {
		return nil, err
	}
	if c.HTTPDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globe_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"route", "method"}), "globe_http_request_duration_seconds"); err != nil {
		return nil, err
	}
	if c.RPCRequests, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "globe_grpc_requests_total",
		Help: "Handled gRPC calls, labeled by service, method, and gRPC status code.",
	}, []string{"service", "method", "code"}), "globe_grpc_requests_total"); err != nil {
		return nil, err
	}
	if c.RPCDurations, err = registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "globe_grpc_request_duration_seconds",
		Help:    "gRPC call latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"service", "method"}), "globe_grpc_request_duration_seconds"); err != nil {
		return nil, err
	}

	return c, nil
}

// RecordDataset satisfies scene.MetricsRecorder.
func (c *GlobeCollector) RecordDataset(parts, degenerate int) {
	if c == nil {
		return
	}
	c.MeshBuilds.Inc()
	c.MeshParts.Set(float64(parts))
	c.DegenerateRings.Add(float64(degenerate))
}

// RecordAnimation satisfies scene.MetricsRecorder. frames is only observed
// for completed animations.
func (c *GlobeCollector) RecordAnimation(event string, frames int) {
	if c == nil {
		return
	}
	c.Animations.WithLabelValues(event).Inc()
	if event == "completed" {
		c.AnimationFrames.Observe(float64(frames))
	}
}

// RecordSelection satisfies scene.MetricsRecorder.
func (c *GlobeCollector) RecordSelection(outcome string) {
	if c == nil {
		return
	}
	c.Selections.WithLabelValues(outcome).Inc()
}

// SetRegionCount satisfies scene.MetricsRecorder.
func (c *GlobeCollector) SetRegionCount(n int) {
	if c == nil {
		return
	}
	c.Regions.Set(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GlobeCollector) Handler() http.Handler {
	var gatherer prometheus.Gatherer
	if c != nil {
		gatherer = c.gatherer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// FiberMiddleware records request counts and durations for the API routes.
// The route label is the matched route pattern, not the raw path.
func (c *GlobeCollector) FiberMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		if c == nil {
			return err
		}
		route := ctx.Route().Path
		if route == "" {
			route = ctx.Path()
		}
		code := ctx.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
		}
		c.HTTPRequests.WithLabelValues(route, ctx.Method(), strconv.Itoa(code)).Inc()
		c.HTTPDurations.WithLabelValues(route, ctx.Method()).Observe(time.Since(start).Seconds())
		return err
	}
}

// FiberHandler serves the collector's registry from a fiber route.
func (c *GlobeCollector) FiberHandler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(c.Handler())
	return func(ctx *fiber.Ctx) error {
		h(ctx.Context())
		return nil
	}
}

// UnaryServerInterceptor records request counts and durations for unary RPCs.
func (c *GlobeCollector) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		if c == nil {
			return resp, err
		}

		fullMethod := ""
		if info != nil {
			fullMethod = info.FullMethod
		}
		service, method := SplitMethod(fullMethod)
		code := status.Code(err).String()

		c.RPCRequests.WithLabelValues(service, method, code).Inc()
		c.RPCDurations.WithLabelValues(service, method).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

// SplitMethod parses a fully-qualified gRPC method name into service and method
// components. It tolerates empty strings and partial paths, returning
// "unknown"/"unknown" when parsing fails.
func SplitMethod(fullMethod string) (string, string) {
	if fullMethod == "" {
		return "unknown", "unknown"
	}
	fullMethod = strings.TrimPrefix(fullMethod, "/")
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 2 {
		return "unknown", "unknown"
	}
	service := parts[len(parts)-2]
	method := parts[len(parts)-1]
	if dot := strings.LastIndex(service, "."); dot >= 0 && dot+1 < len(service) {
		service = service[dot+1:]
	}
	if service == "" {
		service = "unknown"
	}
	if method == "" {
		method = "unknown"
	}
	return service, method
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
