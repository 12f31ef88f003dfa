package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Generation GenerationConfig `yaml:"generation" mapstructure:"generation"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// FetchConfig configures the map-data fetch service.
type FetchConfig struct {
	Endpoints     []string `yaml:"endpoints" mapstructure:"endpoints"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinIntervalMS int      `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	CacheSize     int      `yaml:"cache_size" mapstructure:"cache_size"`
}

// StoreConfig configures the persistent fetch-cache backend.
// Driver is one of "sqlite", "postgres", or "none".
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GenerationConfig is the single parameterized option set for a
// generation run, replacing the overlapping per-variant structs the
// generation experiments accumulated.
type GenerationConfig struct {
	// RadiusM is the generation extent in meters around the center.
	RadiusM float64 `yaml:"radius_m" mapstructure:"radius_m"`
	// TreeDensity is the scatter survival probability in [0,1].
	TreeDensity float64 `yaml:"tree_density" mapstructure:"tree_density"`
	// BuildingScaleMultiplier adjusts building sizes in the output.
	BuildingScaleMultiplier float64 `yaml:"building_scale_multiplier" mapstructure:"building_scale_multiplier"`
	// OutputScale is the local units per meter of the output frame.
	OutputScale float64 `yaml:"output_scale" mapstructure:"output_scale"`
	// Seed drives every random draw in a run; 0 picks a time-based seed.
	Seed uint64 `yaml:"seed" mapstructure:"seed"`
	// BatchSize caps the entities processed per Step invocation.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`

	RoadStepM        float64 `yaml:"road_step_m" mapstructure:"road_step_m"`
	MinRemainderM    float64 `yaml:"min_remainder_m" mapstructure:"min_remainder_m"`
	FootprintPadding float64 `yaml:"footprint_padding" mapstructure:"footprint_padding"`
	CorridorMarginM  float64 `yaml:"corridor_margin_m" mapstructure:"corridor_margin_m"`
	ScatterCellM     float64 `yaml:"scatter_cell_m" mapstructure:"scatter_cell_m"`
	ScatterJitter    float64 `yaml:"scatter_jitter" mapstructure:"scatter_jitter"`
	MaxProps         int     `yaml:"max_props" mapstructure:"max_props"`

	// MinFeatureCount is the data-quality floor below which the parsed
	// dataset is supplemented with procedural structures.
	MinFeatureCount int     `yaml:"min_feature_count" mapstructure:"min_feature_count"`
	ContextRadiusM  float64 `yaml:"context_radius_m" mapstructure:"context_radius_m"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MAPSCENE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("fetch.endpoints", []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
		"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
	})
	v.SetDefault("fetch.timeout_secs", 25)
	v.SetDefault("fetch.min_interval_ms", 1000)
	v.SetDefault("fetch.cache_ttl_hours", 24)
	v.SetDefault("fetch.cache_size", 64)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "mapscene.db")
	v.SetDefault("generation.radius_m", 500)
	v.SetDefault("generation.tree_density", 0.35)
	v.SetDefault("generation.building_scale_multiplier", 1.0)
	v.SetDefault("generation.output_scale", 1.0)
	v.SetDefault("generation.batch_size", 64)
	v.SetDefault("generation.road_step_m", 12)
	v.SetDefault("generation.min_remainder_m", 4)
	v.SetDefault("generation.footprint_padding", 1.25)
	v.SetDefault("generation.corridor_margin_m", 2)
	v.SetDefault("generation.scatter_cell_m", 14)
	v.SetDefault("generation.scatter_jitter", 0.6)
	v.SetDefault("generation.max_props", 2000)
	v.SetDefault("generation.min_feature_count", 6)
	v.SetDefault("generation.context_radius_m", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
