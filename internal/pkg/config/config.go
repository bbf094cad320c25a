package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
	Climate   ClimateConfig   `mapstructure:"climate"`
	Data      DataConfig      `mapstructure:"data"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	RequestTimeout int `mapstructure:"request_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// NATSConfig configures the audit event stream. An empty URL disables it.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig configures the response cache. An empty address disables it.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string  `mapstructure:"service_name"`
	TempoAddr   string  `mapstructure:"tempo_addr"`
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClimateConfig controls the nearest climate file search.
type ClimateConfig struct {
	Root          string  `mapstructure:"root"`
	Scenario      int     `mapstructure:"scenario"`
	Locator       string  `mapstructure:"locator"` // catalog or spiral
	Resolution    float64 `mapstructure:"resolution"`
	Window        int     `mapstructure:"window"`
	SearchDegrees float64 `mapstructure:"search_degrees"`
	West          float64 `mapstructure:"west"`
	East          float64 `mapstructure:"east"`
	South         float64 `mapstructure:"south"`
	North         float64 `mapstructure:"north"`
}

// DataConfig points at static inputs of the download endpoints.
type DataConfig struct {
	PRJFile string `mapstructure:"prj_file"`
}

// CacheConfig holds response cache lifetimes in seconds.
type CacheConfig struct {
	HUC12DataTTL   int `mapstructure:"huc12_data_ttl"`
	HUC12GeoTTL    int `mapstructure:"huc12_geojson_ttl"`
	HUC12StaticTTL int `mapstructure:"huc12_static_ttl"`
	EventsTTL      int `mapstructure:"events_ttl"`
}

// Load reads configuration from .env, file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.request_timeout", 30)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "nobody")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "idep")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sample_ratio", 0.1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("climate.root", "/i")
	v.SetDefault("climate.scenario", 0)
	v.SetDefault("climate.locator", "catalog")
	v.SetDefault("climate.resolution", 0.01)
	v.SetDefault("climate.window", 40)
	v.SetDefault("climate.search_degrees", 1.0)
	v.SetDefault("climate.west", -126.0)
	v.SetDefault("climate.east", -66.0)
	v.SetDefault("climate.south", 23.0)
	v.SetDefault("climate.north", 50.0)
	v.SetDefault("data.prj_file", "/opt/iem/data/gis/meta/5070.prj")
	v.SetDefault("cache.huc12_data_ttl", 3600)
	v.SetDefault("cache.huc12_geojson_ttl", 3600)
	v.SetDefault("cache.huc12_static_ttl", 86400)
	v.SetDefault("cache.events_ttl", 15)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: DEP_DATABASE_HOST → database.host
	v.SetEnvPrefix("DEP")
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

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "server.request_timeout must be positive")
	}
	if c.Climate.Root == "" {
		errs = append(errs, "climate.root is required")
	}
	if c.Climate.Locator != "catalog" && c.Climate.Locator != "spiral" {
		errs = append(errs, fmt.Sprintf("climate.locator must be catalog or spiral, got %q", c.Climate.Locator))
	}
	if c.Climate.Resolution <= 0 {
		errs = append(errs, "climate.resolution must be positive")
	}
	if c.Climate.Window <= 0 {
		errs = append(errs, "climate.window must be positive")
	}
	if c.Climate.SearchDegrees <= 0 {
		errs = append(errs, "climate.search_degrees must be positive")
	}
	if c.Climate.West >= c.Climate.East || c.Climate.South >= c.Climate.North {
		errs = append(errs, "climate domain bounds must satisfy west < east and south < north")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, "telemetry.sample_ratio must be within 0-1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
