package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
	Repair     RepairConfig     `mapstructure:"repair"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Security   SecurityConfig   `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	// URL empty disables the Postgres event store; feedback degrades to
	// log-only.
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
		Recommendations string `mapstructure:"recommendations"`
		Feedback        string `mapstructure:"feedback"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	APIKeys   []string        `mapstructure:"api_keys"`
	TokenTTL  time.Duration   `mapstructure:"token_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EngineConfig carries the recommendation pipeline knobs. The thresholds
// mirror the candidate-set relaxation policy: stem intersections below
// MinStemIntersection fall back to the three-way union, format intersections
// below MinFormatCandidates walk the format relaxation ladder.
type EngineConfig struct {
	TopN                int           `mapstructure:"top_n"`
	MinSimilarity       float64       `mapstructure:"min_similarity"`
	TopClusters         int           `mapstructure:"top_clusters"`
	StemSimilarityFloor float64       `mapstructure:"stem_similarity_floor"`
	MinStemIntersection int           `mapstructure:"min_stem_intersection"`
	MinFormatCandidates int           `mapstructure:"min_format_candidates"`
	CacheTTL            time.Duration `mapstructure:"cache_ttl"`
	CacheEnabled        bool          `mapstructure:"cache_enabled"`
}

type ArtifactsConfig struct {
	Dir         string `mapstructure:"dir"`
	CatalogPath string `mapstructure:"catalog_path"`
}

type RepairConfig struct {
	InputPath      string  `mapstructure:"input_path"`
	OutputPath     string  `mapstructure:"output_path"`
	ReportPath     string  `mapstructure:"report_path"`
	ForestSize     int     `mapstructure:"forest_size"`
	CVFolds        int     `mapstructure:"cv_folds"`
	ConfidenceFlag float64 `mapstructure:"confidence_flag"`
	Seed           int64   `mapstructure:"seed"`
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

	// Set defaults
	setDefaults()

	// Environment variable overrides
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

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 10)
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
	viper.SetDefault("kafka.topics.recommendations", "compass.recommendations.served")
	viper.SetDefault("kafka.topics.feedback", "compass.feedback")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("auth.rate_limit.requests", 300)
	viper.SetDefault("auth.rate_limit.window", "1m")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Engine defaults
	viper.SetDefault("engine.top_n", 20)
	viper.SetDefault("engine.min_similarity", 0.2)
	viper.SetDefault("engine.top_clusters", 5)
	viper.SetDefault("engine.stem_similarity_floor", 0.1)
	viper.SetDefault("engine.min_stem_intersection", 50)
	viper.SetDefault("engine.min_format_candidates", 20)
	viper.SetDefault("engine.cache_ttl", "15m")
	viper.SetDefault("engine.cache_enabled", true)

	// Artifact defaults
	viper.SetDefault("artifacts.dir", "./artifacts")
	viper.SetDefault("artifacts.catalog_path", "./data/catalog.csv")

	// Repair defaults
	viper.SetDefault("repair.input_path", "./data/catalog.csv")
	viper.SetDefault("repair.output_path", "./data/catalog_repaired.csv")
	viper.SetDefault("repair.report_path", "./data/repair_report.json")
	viper.SetDefault("repair.forest_size", 100)
	viper.SetDefault("repair.cv_folds", 5)
	viper.SetDefault("repair.confidence_flag", 0.70)
	viper.SetDefault("repair.seed", 42)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
