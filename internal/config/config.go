package config

import (
	"sync/atomic"
	"time"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment" validate:"required"`
	Server      ServerConfig    `mapstructure:"server"`
	Client      ClientConfig    `mapstructure:"client"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Store       StoreConfig     `mapstructure:"store"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	StaticDir    string `mapstructure:"static_dir"`
}

// ClientConfig drives the forecast client used by the search, favorites and
// watch commands.
type ClientConfig struct {
	BackendURL      string        `mapstructure:"backend_url" validate:"required,url"`
	GeocodingURL    string        `mapstructure:"geocoding_url" validate:"required,url"`
	APIHorizon      int           `mapstructure:"api_horizon" validate:"min=1"`
	MaxForecastDays int           `mapstructure:"max_forecast_days" validate:"min=1"`
	Timeout         int           `mapstructure:"timeout" validate:"min=1"`
	Cache           CacheConfig   `mapstructure:"cache"`
	Offline         OfflineConfig `mapstructure:"offline"`
}

// CacheConfig holds the freshness tiers of the client forecast cache.
type CacheConfig struct {
	NearDays int           `mapstructure:"near_days"`
	NearTTL  time.Duration `mapstructure:"near_ttl"`
	MidDays  int           `mapstructure:"mid_days"`
	MidTTL   time.Duration `mapstructure:"mid_ttl"`
	FarTTL   time.Duration `mapstructure:"far_ttl"`
}

type OfflineConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	CacheName string `mapstructure:"cache_name"`
	Size      int    `mapstructure:"size"`
}

type WeatherConfig struct {
	Services       map[string]WeatherServiceConfig `mapstructure:"services"`
	Timeout        int                             `mapstructure:"timeout"`
	CacheTTL       int                             `mapstructure:"cache_ttl"`
	DefaultHorizon int                             `mapstructure:"default_horizon"`
	MaxHorizon     int                             `mapstructure:"max_horizon"`
}

// WeatherServiceConfig describes one upstream. When several services cover
// the same date, the one with the lowest Priority wins.
type WeatherServiceConfig struct {
	Type     string            `mapstructure:"type"`
	Enabled  bool              `mapstructure:"enabled"`
	Priority int               `mapstructure:"priority"`
	BaseURL  string            `mapstructure:"base_url"`
	Params   map[string]string `mapstructure:"params"`
}

// StoreConfig selects the preferences backend: file, memory or redis.
type StoreConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=file memory redis"`
	Path      string `mapstructure:"path"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	Prefix    string `mapstructure:"prefix"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	// SampleRatio is the fraction of root traces kept, in [0, 1].
	SampleRatio float64 `mapstructure:"sample_ratio" validate:"min=0,max=1"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.4.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 90,
			IdleTimeout:  60,
			StaticDir:    "frontend",
		},
		Client: ClientConfig{
			BackendURL:      "http://localhost:8080/api/predict",
			GeocodingURL:    "https://geocoding-api.open-meteo.com/v1/search",
			APIHorizon:      150,
			MaxForecastDays: 540,
			Timeout:         90,
			Cache: CacheConfig{
				NearDays: 3,
				NearTTL:  time.Hour,
				MidDays:  7,
				MidTTL:   3 * time.Hour,
				FarTTL:   6 * time.Hour,
			},
			Offline: OfflineConfig{
				Enabled:   true,
				CacheName: "novacast-v1.4.0",
				Size:      128,
			},
		},
		Weather: WeatherConfig{
			Services: map[string]WeatherServiceConfig{
				"open-meteo": {
					Type:     "open-meteo",
					Enabled:  true,
					Priority: 0,
					BaseURL:  "https://api.open-meteo.com/v1",
					Params: map[string]string{
						"daily":    "temperature_2m_max,precipitation_probability_max,precipitation_sum,weathercode",
						"timezone": "auto",
					},
				},
				"open-meteo-climate": {
					Type:     "open-meteo-climate",
					Enabled:  true,
					Priority: 1,
					BaseURL:  "https://climate-api.open-meteo.com/v1",
					Params: map[string]string{
						"models": "EC_Earth3P_HR",
						"daily":  "temperature_2m_max,precipitation_sum,rain_sum,snowfall_sum",
					},
				},
			},
			Timeout:        10,
			CacheTTL:       900,
			DefaultHorizon: 360,
			MaxHorizon:     540,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "novacast-preferences.json",
			Prefix:  "novacast:",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			SampleRatio: 1,
		},
	}
}
