package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":8080" || cfg.Data.MaxCountries != 200 || cfg.Frame.FPS != 60 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Camera.Smoothing != 0.08 || cfg.Camera.ArrivalThreshold != 0.1 || cfg.Camera.ZoomedRadius != 3.5 {
		t.Fatalf("unexpected camera defaults: %+v", cfg.Camera)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "globe.yaml")
	yaml := "server:\n  http_addr: \":7000\"\ncamera:\n  smoothing: 0.2\ndata:\n  regions_file: regions.json\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GLOBE_SERVER_HTTP_ADDR", ":7100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPAddr != ":7100" {
		t.Fatalf("HTTPAddr = %q, want env override", cfg.Server.HTTPAddr)
	}
	if cfg.Camera.Smoothing != 0.2 || cfg.Data.RegionsFile != "regions.json" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestLoadEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("GLOBE_FRAME_FPS", "")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("GLOBE_FRAME_FPS=30\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	loaded, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != ".env" {
		t.Fatalf("loaded = %v, want [.env]", loaded)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Frame.FPS != 30 {
		t.Fatalf("FPS = %d, want 30 from .env", cfg.Frame.FPS)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{HTTPAddr: ""},
		Camera: CameraConfig{Smoothing: 1.5, ArrivalThreshold: 0, ZoomedRadius: 1},
		Frame:  FrameConfig{FPS: 0},
		Data:   DataConfig{MaxCountries: -1},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"server.http_addr", "camera.smoothing", "camera.arrival_threshold", "camera.zoomed_radius", "frame.fps", "data.max_countries"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}
