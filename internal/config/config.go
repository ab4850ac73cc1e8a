package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"recommendation"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Mode string `mapstructure:"mode" validate:"oneof=development production"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		PlayEvents string `mapstructure:"play_events"`
		LikeEvents string `mapstructure:"like_events"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration   `mapstructure:"token_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Premium int           `mapstructure:"premium"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig carries the per-strategy scoring weights. The weights differ
// across strategies without a shared principle; they stay as plain
// configuration rather than being collapsed into one scheme.
type EngineConfig struct {
	Session    StrategyWeights       `mapstructure:"session"`
	Contextual StrategyWeights       `mapstructure:"contextual"`
	History    HistoryStrategyConfig `mapstructure:"history"`
	Caching    CachingConfig         `mapstructure:"caching"`
}

type StrategyWeights struct {
	TagWeight     float64 `mapstructure:"tag_weight" validate:"min=0"`
	ArtistBonus   float64 `mapstructure:"artist_bonus" validate:"min=0"`
	LanguageBonus float64 `mapstructure:"language_bonus" validate:"min=0"`
	LikedBonus    float64 `mapstructure:"liked_bonus" validate:"min=0"`
	JitterRange   float64 `mapstructure:"jitter_range" validate:"min=0"`
	OutputSize    int     `mapstructure:"output_size" validate:"min=1"`
}

type HistoryStrategyConfig struct {
	StrategyWeights `mapstructure:",squash"`
	TopTracks       int `mapstructure:"top_tracks" validate:"min=1"`
	TopTags         int `mapstructure:"top_tags" validate:"min=1"`
	TopArtists      int `mapstructure:"top_artists" validate:"min=1"`
	TrendingSize    int `mapstructure:"trending_size" validate:"min=1"`
}

type CachingConfig struct {
	CatalogTTL time.Duration `mapstructure:"catalog_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.hot.max_retries", 3)
	viper.SetDefault("redis.hot.pool_size", 10)
	viper.SetDefault("redis.hot.timeout", "5s")
	viper.SetDefault("redis.warm.max_retries", 3)
	viper.SetDefault("redis.warm.pool_size", 5)
	viper.SetDefault("redis.warm.timeout", "10s")

	// Kafka defaults
	viper.SetDefault("kafka.topics.play_events", "listening-events")
	viper.SetDefault("kafka.topics.like_events", "like-events")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.rate_limit.default", 1000)
	viper.SetDefault("auth.rate_limit.premium", 10000)
	viper.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Session strategy: preferences from tracks played in the current session
	viper.SetDefault("recommendation.session.tag_weight", 25.0)
	viper.SetDefault("recommendation.session.artist_bonus", 30.0)
	viper.SetDefault("recommendation.session.language_bonus", 15.0)
	viper.SetDefault("recommendation.session.liked_bonus", 10.0)
	viper.SetDefault("recommendation.session.jitter_range", 3.0)
	viper.SetDefault("recommendation.session.output_size", 15)

	// Contextual strategy: similarity to one current track
	viper.SetDefault("recommendation.contextual.tag_weight", 15.0)
	viper.SetDefault("recommendation.contextual.artist_bonus", 25.0)
	viper.SetDefault("recommendation.contextual.language_bonus", 10.0)
	viper.SetDefault("recommendation.contextual.liked_bonus", 8.0)
	viper.SetDefault("recommendation.contextual.jitter_range", 2.0)
	viper.SetDefault("recommendation.contextual.output_size", 10)

	// History strategy: frequent tags/artists of the most-listened tracks
	viper.SetDefault("recommendation.history.tag_weight", 20.0)
	viper.SetDefault("recommendation.history.artist_bonus", 25.0)
	viper.SetDefault("recommendation.history.language_bonus", 0.0)
	viper.SetDefault("recommendation.history.liked_bonus", 10.0)
	viper.SetDefault("recommendation.history.jitter_range", 2.0)
	viper.SetDefault("recommendation.history.output_size", 30)
	viper.SetDefault("recommendation.history.top_tracks", 10)
	viper.SetDefault("recommendation.history.top_tags", 5)
	viper.SetDefault("recommendation.history.top_artists", 3)
	viper.SetDefault("recommendation.history.trending_size", 20)

	// Caching defaults
	viper.SetDefault("recommendation.caching.catalog_ttl", "1m")
	viper.SetDefault("recommendation.caching.session_ttl", "4h")

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
