package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/signalsfoundry/region-globe/core"
	"github.com/signalsfoundry/region-globe/internal/api"
	"github.com/signalsfoundry/region-globe/internal/config"
	"github.com/signalsfoundry/region-globe/internal/logging"
	"github.com/signalsfoundry/region-globe/internal/observability"
	"github.com/signalsfoundry/region-globe/internal/scene"
	"github.com/signalsfoundry/region-globe/kb"
	"github.com/signalsfoundry/region-globe/timectrl"
)

// healthService is the gRPC health service name reported alongside "".
const healthService = "globe.Scene"

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (default: globe.yaml in . or ./configs if present)")
	httpAddr := flag.String("http-addr", "", "Override server.http_addr")
	grpcAddr := flag.String("grpc-addr", "", "Override server.grpc_addr")
	metricsAddr := flag.String("metrics-addr", "", "Override server.metrics_addr")
	regionsPath := flag.String("regions", "", "Override data.regions_file")
	countriesPath := flag.String("countries", "", "Override data.countries_file")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if loaded, err := config.LoadEnv(); err != nil {
		log.Warn(ctx, "failed to load env file", logging.Err(err))
	} else if len(loaded) > 0 {
		log.Debug(ctx, "loaded env files", logging.Any("files", loaded))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error(ctx, "invalid configuration", logging.Err(err))
		os.Exit(1)
	}
	overrideString(&cfg.Server.HTTPAddr, *httpAddr)
	overrideString(&cfg.Server.GRPCAddr, *grpcAddr)
	overrideString(&cfg.Server.MetricsAddr, *metricsAddr)
	overrideString(&cfg.Data.RegionsFile, *regionsPath)
	overrideString(&cfg.Data.CountriesFile, *countriesPath)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewGlobeCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		os.Exit(1)
	}

	httpLis, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for HTTP", logging.String("addr", cfg.Server.HTTPAddr), logging.Err(err))
		os.Exit(1)
	}
	var grpcLis net.Listener
	if cfg.Server.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.Server.GRPCAddr), logging.Err(err))
			os.Exit(1)
		}
	}

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(stopCtx, cfg, log, collector, httpLis, grpcLis); err != nil {
		log.Error(ctx, "globe server exited", logging.Err(err))
		os.Exit(1)
	}
	log.Info(ctx, "globe server stopped")
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// run serves the API on httpLis and gRPC health on grpcLis (optional) and
// drives the frame loop until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logging.Logger, collector *observability.GlobeCollector, httpLis, grpcLis net.Listener) error {
	regions, err := loadRegions(cfg.Data.RegionsFile)
	if err != nil {
		return err
	}
	log.Info(ctx, "region catalog ready", logging.Int("regions", regions.Len()))

	animCfg := core.DefaultAnimatorConfig()
	animCfg.Smoothing = cfg.Camera.Smoothing
	animCfg.ArrivalThreshold = cfg.Camera.ArrivalThreshold
	animCfg.ZoomedRadius = cfg.Camera.ZoomedRadius
	animCfg.FrameRateIndependent = cfg.Camera.FrameRateIndependent

	sc := scene.New(regions,
		scene.WithLogger(log),
		scene.WithMetricsRecorder(collector),
		scene.WithAnimatorConfig(animCfg),
	)
	defer sc.Close()

	if path := cfg.Data.CountriesFile; path != "" {
		if err := loadCountries(ctx, sc, path, cfg.Data.MaxCountries); err != nil {
			return err
		}
	}

	hub := api.NewHub()
	app := api.NewApp(&api.Dependencies{
		Scene:   sc,
		Regions: regions,
		Metrics: collector,
		Hub:     hub,
	}, log)

	healthSrv := health.NewServer()
	grpcSrv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			api.RequestIDUnaryServerInterceptor(log),
			api.SpanAttributesUnaryServerInterceptor(),
			collector.UnaryServerInterceptor(),
		),
	)
	grpc_health_v1.RegisterHealthServer(grpcSrv, healthSrv)
	healthSrv.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthSrv.SetServingStatus(healthService, grpc_health_v1.HealthCheckResponse_SERVING)

	var interval time.Duration
	if cfg.Frame.FPS > 0 {
		interval = time.Second / time.Duration(cfg.Frame.FPS)
	}
	loop := timectrl.NewFrameLoop(time.Now(), interval, timectrl.RealTime)
	loop.AddListener(func(f timectrl.Frame) {
		sc.Tick(f.Delta)
		if hub.Subscribers() > 0 {
			hub.Publish(sc.Snapshot())
		}
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(ctx, "starting HTTP API", logging.String("addr", httpLis.Addr().String()))
		if err := app.Listener(httpLis); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		g.Go(func() error {
			log.Info(ctx, "starting gRPC health server", logging.String("addr", grpcLis.Addr().String()))
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
	}

	var metricsSrv *http.Server
	if cfg.Server.MetricsAddr != "" {
		metricsSrv = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: metricsMux(collector)}
		g.Go(func() error {
			log.Info(ctx, "serving Prometheus metrics", logging.String("addr", cfg.Server.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-loop.Run(0, gctx.Done())
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(ctx, "shutting down globe server")
		healthSrv.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		grpcSrv.GracefulStop()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return app.ShutdownWithContext(shutdownCtx)
	})

	return g.Wait()
}

func metricsMux(collector *observability.GlobeCollector) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	return mux
}

func loadRegions(path string) (*kb.RegionCatalog, error) {
	regions := kb.NewRegionCatalog()
	if path == "" {
		return regions, kb.LoadDefaults(regions)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open regions file: %w", err)
	}
	defer f.Close()
	if _, err := kb.LoadRegions(regions, f); err != nil {
		return nil, fmt.Errorf("load regions %s: %w", path, err)
	}
	return regions, nil
}

func loadCountries(ctx context.Context, sc *scene.Scene, path string, maxCountries int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open countries file: %w", err)
	}
	defer f.Close()
	return sc.LoadDataset(ctx, f, maxCountries)
}
