package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Corpus      CorpusConfig    `mapstructure:"corpus"`
	Recommend   RecommendConfig `mapstructure:"recommend"`
	Planner     PlannerConfig   `mapstructure:"planner"`
	USDA        USDAConfig      `mapstructure:"usda"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// CorpusConfig 語料設定
type CorpusConfig struct {
	ArtifactPath      string `mapstructure:"artifact_path"`
	PlaceholderMarker string `mapstructure:"placeholder_marker"`
}

// RecommendConfig 推薦流程設定
type RecommendConfig struct {
	DefaultTopK      int     `mapstructure:"default_top_k"`
	PoolSize         int     `mapstructure:"pool_size"`
	PlanPoolSize     int     `mapstructure:"plan_pool_size"`
	MaxExtra         int     `mapstructure:"max_extra"`
	ServingTolerance float64 `mapstructure:"serving_tolerance"`
}

// PlannerConfig 餐點規劃求解設定
type PlannerConfig struct {
	AbsGap       float64       `mapstructure:"abs_gap"`
	MaxNodes     int           `mapstructure:"max_nodes"`
	IntTolerance float64       `mapstructure:"int_tolerance"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// USDAConfig FoodData Central 設定
type USDAConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
	Workers  int           `mapstructure:"workers"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// QueueConfig 規劃佇列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（可省略）
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("corpus.artifact_path", "CORPUS_ARTIFACT_PATH")
	_ = v.BindEnv("usda.api_key", "USDA_API_KEY")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "meal-planner")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 語料設定
	v.SetDefault("corpus.artifact_path", "data/corpus.json")
	v.SetDefault("corpus.placeholder_marker", "food.com")

	// 推薦設定
	v.SetDefault("recommend.default_top_k", 10)
	v.SetDefault("recommend.pool_size", 50)
	v.SetDefault("recommend.plan_pool_size", 80)
	v.SetDefault("recommend.max_extra", 3)
	v.SetDefault("recommend.serving_tolerance", 4)

	// 規劃設定
	v.SetDefault("planner.abs_gap", 0)
	v.SetDefault("planner.max_nodes", 1000000)
	v.SetDefault("planner.int_tolerance", 1e-6)
	v.SetDefault("planner.timeout", "20s")

	// USDA 設定
	v.SetDefault("usda.api_key", "")
	v.SetDefault("usda.base_url", "https://api.nal.usda.gov/fdc/v1")
	v.SetDefault("usda.timeout", "10s")
	v.SetDefault("usda.page_size", 1)
	v.SetDefault("usda.workers", 4)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 佇列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 64)

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Corpus.ArtifactPath == "" {
		return fmt.Errorf("corpus artifact path is required")
	}

	if config.Recommend.DefaultTopK <= 0 {
		return fmt.Errorf("invalid default top_k")
	}
	if config.Recommend.PoolSize <= 0 || config.Recommend.PlanPoolSize <= 0 {
		return fmt.Errorf("invalid candidate pool size")
	}
	if config.Recommend.MaxExtra < 0 {
		return fmt.Errorf("invalid max extra ingredients")
	}
	if config.Recommend.ServingTolerance < 0 {
		return fmt.Errorf("invalid serving tolerance")
	}

	if config.Planner.AbsGap < 0 || config.Planner.MaxNodes < 0 {
		return fmt.Errorf("invalid planner limits")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required")
			}
		default:
			return fmt.Errorf("unknown cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}
