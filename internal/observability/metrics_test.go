package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(5 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("Health", "Check", "OK")); got != 1 {
		t.Fatalf("globe_grpc_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "globe_grpc_request_duration_seconds", map[string]string{
		"service": "Health",
		"method":  "Check",
	}); count != 1 {
		t.Fatalf("globe_grpc_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "unknown service")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("Health", "Check", "NotFound")); got != 1 {
		t.Fatalf("globe_grpc_requests_total error label = %v, want 1", got)
	}
}

func TestFiberMiddlewareRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}

	app := fiber.New()
	app.Use(collector.FiberMiddleware())
	app.Post("/api/v1/select", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).SendString("nope")
	})
	app.Get("/api/v1/regions/:id", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "missing")
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/select", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/regions/atlantis", nil),
	} {
		if _, err := app.Test(req); err != nil {
			t.Fatalf("app.Test: %v", err)
		}
	}

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/v1/select", "POST", "400")); got != 1 {
		t.Fatalf("globe_http_requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("/api/v1/regions/:id", "GET", "404")); got != 1 {
		t.Fatalf("route pattern label missing: %v", got)
	}
	if count := histogramSampleCount(t, reg, "globe_http_request_duration_seconds", map[string]string{
		"route":  "/api/v1/select",
		"method": "POST",
	}); count != 1 {
		t.Fatalf("globe_http_request_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestFiberHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}
	collector.SetRegionCount(3)

	app := fiber.New()
	app.Get("/metrics", collector.FiberHandler())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "globe_regions 3") {
		t.Fatalf("expected globe_regions in output: %s", body)
	}
}

func TestRecorderMethods(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}

	collector.RecordDataset(12, 3)
	collector.RecordDataset(10, 1)
	collector.RecordAnimation("started", 0)
	collector.RecordAnimation("completed", 42)
	collector.RecordSelection("unknown")
	collector.SetRegionCount(5)

	if got := testutil.ToFloat64(collector.MeshBuilds); got != 2 {
		t.Fatalf("mesh builds = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.MeshParts); got != 10 {
		t.Fatalf("mesh parts = %v, want 10", got)
	}
	if got := testutil.ToFloat64(collector.DegenerateRings); got != 4 {
		t.Fatalf("degenerate rings = %v, want 4", got)
	}
	if got := testutil.ToFloat64(collector.Animations.WithLabelValues("completed")); got != 1 {
		t.Fatalf("completed animations = %v, want 1", got)
	}
	if count := histogramSampleCount(t, reg, "globe_camera_animation_frames", nil); count != 1 {
		t.Fatalf("animation frames sample_count = %d, want 1", count)
	}
	if got := testutil.ToFloat64(collector.Selections.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown selections = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Regions); got != 5 {
		t.Fatalf("regions = %v, want 5", got)
	}
}

func TestNewGlobeCollectorIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("first NewGlobeCollector: %v", err)
	}
	second, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("second NewGlobeCollector: %v", err)
	}
	first.RecordSelection("region")
	if got := testutil.ToFloat64(second.Selections.WithLabelValues("region")); got != 1 {
		t.Fatalf("collectors not shared: %v", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *GlobeCollector
	c.RecordDataset(1, 1)
	c.RecordAnimation("completed", 3)
	c.RecordSelection("overview")
	c.SetRegionCount(2)

	app := fiber.New()
	app.Use(c.FiberMiddleware())
	app.Get("/x", func(ctx *fiber.Ctx) error { return ctx.SendStatus(fiber.StatusNoContent) })
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/x", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
}

func TestMetricsHandlerExposesGlobeGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewGlobeCollector(reg)
	if err != nil {
		t.Fatalf("NewGlobeCollector: %v", err)
	}
	collector.SetRegionCount(5)
	collector.RecordDataset(7, 0)
	collector.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"globe_regions 5",
		"globe_mesh_parts 7",
		"globe_mesh_builds_total 1",
		"globe_grpc_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := map[string][2]string{
		"":                             {"unknown", "unknown"},
		"/grpc.health.v1.Health/Check": {"Health", "Check"},
		"Check":                        {"unknown", "unknown"},
		"/Svc/":                        {"Svc", "unknown"},
	}
	for in, want := range cases {
		svc, method := SplitMethod(in)
		if svc != want[0] || method != want[1] {
			t.Errorf("SplitMethod(%q) = %s/%s, want %s/%s", in, svc, method, want[0], want[1])
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
