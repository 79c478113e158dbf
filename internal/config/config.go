// Package config loads globe runtime settings from defaults, an optional
// YAML file, .env files, and GLOBE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: GLOBE_SERVER_HTTP_ADDR -> server.http_addr.
const EnvPrefix = "GLOBE"

// Config holds all runtime configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Camera CameraConfig `mapstructure:"camera"`
	Frame  FrameConfig  `mapstructure:"frame"`
}

type ServerConfig struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	GRPCAddr    string `mapstructure:"grpc_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type DataConfig struct {
	RegionsFile   string `mapstructure:"regions_file"`
	CountriesFile string `mapstructure:"countries_file"`
	MaxCountries  int    `mapstructure:"max_countries"`
}

type CameraConfig struct {
	Smoothing            float64 `mapstructure:"smoothing"`
	ArrivalThreshold     float64 `mapstructure:"arrival_threshold"`
	ZoomedRadius         float64 `mapstructure:"zoomed_radius"`
	FrameRateIndependent bool    `mapstructure:"frame_rate_independent"`
}

type FrameConfig struct {
	FPS int `mapstructure:"fps"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.metrics_addr", ":9464")
	v.SetDefault("data.regions_file", "")
	v.SetDefault("data.countries_file", "")
	v.SetDefault("data.max_countries", 200)
	v.SetDefault("camera.smoothing", 0.08)
	v.SetDefault("camera.arrival_threshold", 0.1)
	v.SetDefault("camera.zoomed_radius", 3.5)
	v.SetDefault("camera.frame_rate_independent", false)
	v.SetDefault("frame.fps", 60)
}

// LoadEnv overlays the given .env files onto the process environment,
// returning the files that were applied. Missing files are skipped.
func LoadEnv(files ...string) ([]string, error) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			return loaded, fmt.Errorf("load %s: %w", file, err)
		}
		loaded = append(loaded, file)
	}
	return loaded, nil
}

// Load reads configuration. When file is empty, globe.yaml is looked up in
// the working directory and ./configs and is optional; an explicit file must
// exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("globe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPAddr == "" {
		errs = append(errs, "server.http_addr is required")
	}
	if c.Data.MaxCountries < 0 {
		errs = append(errs, fmt.Sprintf("data.max_countries must be >= 0, got %d", c.Data.MaxCountries))
	}
	if c.Camera.Smoothing <= 0 || c.Camera.Smoothing > 1 {
		errs = append(errs, fmt.Sprintf("camera.smoothing must be in (0,1], got %v", c.Camera.Smoothing))
	}
	if c.Camera.ArrivalThreshold <= 0 {
		errs = append(errs, "camera.arrival_threshold must be positive")
	}
	if c.Camera.ZoomedRadius <= 2 {
		errs = append(errs, fmt.Sprintf("camera.zoomed_radius must exceed the globe radius 2, got %v", c.Camera.ZoomedRadius))
	}
	if c.Frame.FPS <= 0 || c.Frame.FPS > 1000 {
		errs = append(errs, fmt.Sprintf("frame.fps must be 1-1000, got %d", c.Frame.FPS))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
