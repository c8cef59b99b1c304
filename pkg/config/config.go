// Package config loads application configuration from YAML files with
// environment-variable overrides. One Config value is built in main and passed
// to every component constructor; nothing reads configuration globally.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration shared by every process.
type Config struct {
	Directory   DirectoryConfig   `yaml:"directory"`
	RPC         RPCConfig         `yaml:"rpc"`
	Frontier    FrontierConfig    `yaml:"frontier"`
	Barrel      BarrelConfig      `yaml:"barrel"`
	Crawler     CrawlerConfig     `yaml:"crawler"`
	Search      SearchConfig      `yaml:"search"`
	Gateway     GatewayConfig     `yaml:"gateway"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Server      ServerConfig      `yaml:"server"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Redis       RedisConfig       `yaml:"redis"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// DirectoryConfig locates the service directory. Backend is "rpc" (the
// directory process) or "redis" (a shared hash in Redis).
type DirectoryConfig struct {
	Addr     string `yaml:"addr"`
	Backend  string `yaml:"backend"`
	RedisKey string `yaml:"redisKey"`
}

// RPCConfig bounds every remote call.
type RPCConfig struct {
	DialTimeout time.Duration `yaml:"dialTimeout"`
	CallTimeout time.Duration `yaml:"callTimeout"`
}

// FrontierConfig holds the URL queue's listen address and seed URLs.
type FrontierConfig struct {
	Addr  string   `yaml:"addr"`
	Seeds []string `yaml:"seeds"`
}

// BarrelConfig holds the index shard's listen address. Port 0 picks a free
// port; the bound address is what gets registered.
type BarrelConfig struct {
	Addr string `yaml:"addr"`
}

// CrawlerConfig controls the downloader worker loop and multicast retries.
type CrawlerConfig struct {
	Workers           int           `yaml:"workers"`
	RetryCount        int           `yaml:"retryCount"`
	RetryDelay        time.Duration `yaml:"retryDelay"`
	EmptyQueueBackoff time.Duration `yaml:"emptyQueueBackoff"`
	ReconnectDelay    time.Duration `yaml:"reconnectDelay"`
	FetchTimeout      time.Duration `yaml:"fetchTimeout"`
	UserAgent         string        `yaml:"userAgent"`
	JoinTimeout       time.Duration `yaml:"joinTimeout"`
}

// SearchConfig holds tokenisation and pagination settings.
type SearchConfig struct {
	PageSize      int `yaml:"pageSize"`
	MinWordLength int `yaml:"minWordLength"`
}

// GatewayConfig controls routing, caching and statistics on the gateway.
type GatewayConfig struct {
	Port                int           `yaml:"port"`
	RPCAddr             string        `yaml:"rpcAddr"`
	Strategy            string        `yaml:"strategy"`
	CacheEnabled        bool          `yaml:"cacheEnabled"`
	CacheBackend        string        `yaml:"cacheBackend"`
	MaxAttempts         int           `yaml:"maxAttempts"`
	HealthProbeInterval time.Duration `yaml:"healthProbeInterval"`
	EnqueueRetryDelay   time.Duration `yaml:"enqueueRetryDelay"`
	StatsInterval       time.Duration `yaml:"statsInterval"`
	TopQueries          int           `yaml:"topQueries"`
}

// PersistenceConfig controls snapshot files.
type PersistenceConfig struct {
	Enabled          bool          `yaml:"enabled"`
	Dir              string        `yaml:"dir"`
	AutosaveInterval time.Duration `yaml:"autosaveInterval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters for the statistics
// archive.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	StatsRetention  time.Duration `yaml:"statsRetention"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Stats string `yaml:"stats"`
}

// RedisConfig holds Redis connection parameters shared by the redis cache and
// directory backends.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Directory: DirectoryConfig{
			Addr:     "localhost:1099",
			Backend:  "rpc",
			RedisKey: "googol:directory",
		},
		RPC: RPCConfig{
			DialTimeout: 3 * time.Second,
			CallTimeout: 5 * time.Second,
		},
		Frontier: FrontierConfig{
			Addr: "localhost:1100",
		},
		Barrel: BarrelConfig{
			Addr: "localhost:0",
		},
		Crawler: CrawlerConfig{
			Workers:           1,
			RetryCount:        3,
			RetryDelay:        time.Second,
			EmptyQueueBackoff: 2 * time.Second,
			ReconnectDelay:    5 * time.Second,
			FetchTimeout:      5 * time.Second,
			UserAgent:         "Mozilla/5.0 (Googol Bot)",
			JoinTimeout:       10 * time.Second,
		},
		Search: SearchConfig{
			PageSize:      10,
			MinWordLength: 3,
		},
		Gateway: GatewayConfig{
			Port:                8080,
			RPCAddr:             "localhost:1101",
			Strategy:            "round-robin",
			CacheEnabled:        true,
			CacheBackend:        "memory",
			MaxAttempts:         3,
			HealthProbeInterval: 10 * time.Second,
			EnqueueRetryDelay:   time.Second,
			StatsInterval:       time.Second,
			TopQueries:          10,
		},
		Persistence: PersistenceConfig{
			Enabled:          true,
			Dir:              "data",
			AutosaveInterval: 30 * time.Second,
		},
		Server: ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "googol",
			User:            "googol",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			StatsRetention:  24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				Stats: "googol.stats",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings that would make a component misbehave rather
// than fail loudly.
func (c *Config) Validate() error {
	switch c.Directory.Backend {
	case "rpc", "redis":
	default:
		return fmt.Errorf("directory.backend %q: want rpc or redis", c.Directory.Backend)
	}
	switch c.Gateway.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("gateway.cacheBackend %q: want memory or redis", c.Gateway.CacheBackend)
	}
	if c.Crawler.RetryCount < 0 {
		return fmt.Errorf("crawler.retryCount must not be negative")
	}
	if c.Crawler.Workers <= 0 {
		return fmt.Errorf("crawler.workers must be positive")
	}
	if c.Search.PageSize <= 0 {
		return fmt.Errorf("search.pageSize must be positive")
	}
	if c.Gateway.MaxAttempts <= 0 {
		return fmt.Errorf("gateway.maxAttempts must be positive")
	}
	if c.Gateway.HealthProbeInterval <= 0 {
		return fmt.Errorf("gateway.healthProbeInterval must be positive")
	}
	if c.Gateway.StatsInterval <= 0 {
		return fmt.Errorf("gateway.statsInterval must be positive")
	}
	if c.Persistence.Enabled && c.Persistence.AutosaveInterval <= 0 {
		return fmt.Errorf("persistence.autosaveInterval must be positive")
	}
	return nil
}

// applyEnvOverrides reads GOOGOL_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	envString("GOOGOL_DIRECTORY_ADDR", &cfg.Directory.Addr)
	envString("GOOGOL_DIRECTORY_BACKEND", &cfg.Directory.Backend)
	envString("GOOGOL_FRONTIER_ADDR", &cfg.Frontier.Addr)
	envString("GOOGOL_BARREL_ADDR", &cfg.Barrel.Addr)
	envInt("GOOGOL_CRAWLER_WORKERS", &cfg.Crawler.Workers)
	envInt("GOOGOL_CRAWLER_RETRY_COUNT", &cfg.Crawler.RetryCount)
	envDuration("GOOGOL_CRAWLER_RETRY_DELAY", &cfg.Crawler.RetryDelay)
	envDuration("GOOGOL_CRAWLER_FETCH_TIMEOUT", &cfg.Crawler.FetchTimeout)
	envString("GOOGOL_CRAWLER_USER_AGENT", &cfg.Crawler.UserAgent)
	envInt("GOOGOL_SEARCH_PAGE_SIZE", &cfg.Search.PageSize)
	envInt("GOOGOL_SEARCH_MIN_WORD_LENGTH", &cfg.Search.MinWordLength)
	envInt("GOOGOL_GATEWAY_PORT", &cfg.Gateway.Port)
	envString("GOOGOL_GATEWAY_RPC_ADDR", &cfg.Gateway.RPCAddr)
	envString("GOOGOL_GATEWAY_STRATEGY", &cfg.Gateway.Strategy)
	envBool("GOOGOL_GATEWAY_CACHE_ENABLED", &cfg.Gateway.CacheEnabled)
	envString("GOOGOL_GATEWAY_CACHE_BACKEND", &cfg.Gateway.CacheBackend)
	envBool("GOOGOL_PERSISTENCE_ENABLED", &cfg.Persistence.Enabled)
	envString("GOOGOL_PERSISTENCE_DIR", &cfg.Persistence.Dir)
	envDuration("GOOGOL_PERSISTENCE_AUTOSAVE_INTERVAL", &cfg.Persistence.AutosaveInterval)
	envBool("GOOGOL_POSTGRES_ENABLED", &cfg.Postgres.Enabled)
	envString("GOOGOL_POSTGRES_HOST", &cfg.Postgres.Host)
	envInt("GOOGOL_POSTGRES_PORT", &cfg.Postgres.Port)
	envString("GOOGOL_POSTGRES_DATABASE", &cfg.Postgres.Database)
	envString("GOOGOL_POSTGRES_USER", &cfg.Postgres.User)
	envString("GOOGOL_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envBool("GOOGOL_KAFKA_ENABLED", &cfg.Kafka.Enabled)
	if v := os.Getenv("GOOGOL_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	envString("GOOGOL_REDIS_ADDR", &cfg.Redis.Addr)
	envString("GOOGOL_REDIS_PASSWORD", &cfg.Redis.Password)
	envString("GOOGOL_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("GOOGOL_LOGGING_FORMAT", &cfg.Logging.Format)
	envInt("GOOGOL_METRICS_PORT", &cfg.Metrics.Port)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
