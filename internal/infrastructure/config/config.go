package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver            string        `mapstructure:"driver"`
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	DBName            string        `mapstructure:"dbname"`
	SSLMode           string        `mapstructure:"sslmode"`
	TimeZone          string        `mapstructure:"timezone"`
	SQLitePath        string        `mapstructure:"sqlite_path"`
	MaxOpenConns      int           `mapstructure:"max_open_conns"`
	MaxIdleConns      int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `mapstructure:"conn_max_lifetime"`
	KeepAliveInterval time.Duration `mapstructure:"keep_alive_interval"` // 连接保活间隔
	ConnectAttempts   uint          `mapstructure:"connect_attempts"`    // 启动时连接重试次数
	LogLevel          string        `mapstructure:"log_level"`           // silent, error, warn, info
}

// Config 应用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limiting"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
	AI         AIConfig         `mapstructure:"ai"`
	Storage    StorageConfig    `mapstructure:"storage"`
	S3         S3Config         `mapstructure:"s3"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"` // development, staging, production
}

// IsProduction 是否为生产环境
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// IsDevelopment 是否为开发环境
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
	AIRequestsPerHour int  `mapstructure:"ai_requests_per_hour"` // 元数据生成接口的用户级限流
}

// JWTConfig JWT认证配置
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address Redis地址
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	UserTTL time.Duration `mapstructure:"user_ttl"`
	TagTTL  time.Duration `mapstructure:"tag_ttl"`
}

// EncryptionConfig 凭证加密配置
type EncryptionConfig struct {
	Key         string `mapstructure:"key"`           // 来自 AI_ENCRYPTION_KEY
	AllowDevKey bool   `mapstructure:"allow_dev_key"` // 未配置密钥时是否允许开发密钥
}

// AIConfig AI服务配置
type AIConfig struct {
	DefaultProvider    string        `mapstructure:"default_provider"`
	DefaultModel       string        `mapstructure:"default_model"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxContentLength   int           `mapstructure:"max_content_length"`
	DescriptionMinimum int           `mapstructure:"description_min_length"`
	DescriptionMaximum int           `mapstructure:"description_max_length"`
}

// StorageConfig 上传文件存储配置
type StorageConfig struct {
	LocalDir     string   `mapstructure:"local_dir"`
	PublicPrefix string   `mapstructure:"public_prefix"`
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// S3Config S3存储配置
type S3Config struct {
	Enabled         bool     `mapstructure:"enabled"`           // 是否启用S3存储
	Region          string   `mapstructure:"region"`            // AWS区域
	Bucket          string   `mapstructure:"bucket"`            // S3存储桶名称
	AccessKeyID     string   `mapstructure:"access_key_id"`     // AWS访问密钥ID
	SecretAccessKey string   `mapstructure:"secret_access_key"` // AWS秘密访问密钥
	Endpoint        string   `mapstructure:"endpoint"`          // 自定义端点（用于兼容S3的服务）
	UsePathStyle    bool     `mapstructure:"use_path_style"`    // 是否使用路径样式URL
	MaxFileSize     int64    `mapstructure:"max_file_size"`     // 最大文件大小（字节）
	AllowedTypes    []string `mapstructure:"allowed_types"`     // 允许的文件类型
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 加载配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// 设置环境变量
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("encryption.key", "AI_ENCRYPTION_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind encryption key env: %w", err)
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件，未显式指定路径时允许缺省
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 只有开发环境默认允许开发密钥
	if !v.IsSet("encryption.allow_dev_key") {
		config.Encryption.AllowDevKey = config.App.IsDevelopment()
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "prompt-manager")
	v.SetDefault("app.env", "development")

	// 服务器默认值
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "45s") // 需大于AI调用的30秒超时
	v.SetDefault("server.allowed_origins", []string{"*"})

	// 数据库默认值
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.sqlite_path", "data/prompts.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "300s")
	v.SetDefault("database.keep_alive_interval", "30s")
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("database.log_level", "warn")

	// 日志默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// 速率限制默认值
	v.SetDefault("rate_limiting.enabled", true)
	v.SetDefault("rate_limiting.requests_per_minute", 120)
	v.SetDefault("rate_limiting.burst", 30)
	v.SetDefault("rate_limiting.ai_requests_per_hour", 60)

	// JWT默认值
	v.SetDefault("jwt.secret", "your-super-secret-jwt-key-change-this-in-production")
	v.SetDefault("jwt.access_token_ttl", "24h")
	v.SetDefault("jwt.refresh_token_ttl", "168h")
	v.SetDefault("jwt.issuer", "prompt-manager")
	v.SetDefault("jwt.audience", "prompt-manager-users")

	// Redis默认值
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// 缓存默认值
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.user_ttl", "5m")
	v.SetDefault("cache.tag_ttl", "10m")

	// AI默认值
	v.SetDefault("ai.default_provider", "openai")
	v.SetDefault("ai.default_model", "gpt-3.5-turbo")
	v.SetDefault("ai.request_timeout", "30s")
	v.SetDefault("ai.max_content_length", 10000)
	v.SetDefault("ai.description_min_length", 100)
	v.SetDefault("ai.description_max_length", 150)

	// 本地存储默认值
	v.SetDefault("storage.local_dir", "uploads")
	v.SetDefault("storage.public_prefix", "/uploads")
	v.SetDefault("storage.max_file_size", 5*1024*1024) // 5MB
	v.SetDefault("storage.allowed_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})

	// S3存储默认值
	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.max_file_size", 5*1024*1024)
	v.SetDefault("s3.allowed_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})

	// 监控默认值
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validateConfig 验证配置
func validateConfig(config *Config) error {
	// 验证服务器配置
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	// 验证数据库配置
	switch config.Database.Driver {
	case "postgres":
		if config.Database.Host == "" || config.Database.DBName == "" {
			return fmt.Errorf("postgres requires database.host and database.dbname")
		}
	case "sqlite":
		if config.Database.SQLitePath == "" {
			return fmt.Errorf("sqlite requires database.sqlite_path")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	// 验证日志配置
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}

	if config.App.IsProduction() && config.Encryption.Key == "" && config.Encryption.AllowDevKey {
		return fmt.Errorf("AI_ENCRYPTION_KEY must be set in production")
	}

	return nil
}

// GetAddress 获取服务器地址
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
