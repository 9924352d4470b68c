// Package config provides configuration management for the win-probability service.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Model backends
const (
	ModelBackendLocal      = "local"
	ModelBackendRemoteHTTP = "remote_http"
	ModelBackendRemoteGRPC = "remote_grpc"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Model    ModelConfig    `mapstructure:"model" validate:"required"`
	Cache    CacheConfig    `mapstructure:"cache" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Data     DataConfig     `mapstructure:"data"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Health   HealthConfig   `mapstructure:"health"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents the prediction API listeners
type ServerConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	GRPCPort            int      `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	RateLimitPerSecond  float64  `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	RateLimitBurst      int      `mapstructure:"rate_limit_burst" validate:"gte=0"`
	EnableWebsocket     bool     `mapstructure:"enable_websocket"`
	// APIKey, when set, is required in the X-API-Key header of raw scoring calls
	APIKey string `mapstructure:"api_key"`
}

// ModelConfig represents where predictions come from
type ModelConfig struct {
	Backend               string  `mapstructure:"backend" validate:"required,modelbackend"`
	ArtifactPath          string  `mapstructure:"artifact_path"`
	CatalogPath           string  `mapstructure:"catalog_path"`
	ReloadCron            string  `mapstructure:"reload_cron" validate:"omitempty,cronspec"`
	ExtendedFeatures      bool    `mapstructure:"extended_features"`
	RemoteURL             string  `mapstructure:"remote_url" validate:"omitempty,url"`
	RemoteGRPCAddress     string  `mapstructure:"remote_grpc_address"`
	RemoteAPIKey          string  `mapstructure:"remote_api_key"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimitPerSecond    float64 `mapstructure:"rate_limit_per_second" validate:"gte=0"`
	BreakerFailures       int     `mapstructure:"breaker_failures" validate:"gte=0"`
	BreakerTimeoutSeconds int     `mapstructure:"breaker_timeout_seconds" validate:"gte=0"`
}

// CacheConfig represents prediction caching
type CacheConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Backend       string `mapstructure:"backend" validate:"required,cachebackend"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" validate:"required,gt=0"`
	MaxSize       int    `mapstructure:"max_size" validate:"required,gt=0"`
	SweepCron     string `mapstructure:"sweep_cron" validate:"omitempty,cronspec"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
}

// DatabaseConfig represents the optional prediction log database
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port           int    `mapstructure:"port" validate:"required_if=Enabled true,omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name" validate:"required_if=Enabled true"`
	User           string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// DataConfig points at the historical datasets used for training and statistics
type DataConfig struct {
	MatchesPath     string `mapstructure:"matches_path"`
	DeliveriesPath  string `mapstructure:"deliveries_path"`
	OneIndexedOvers bool   `mapstructure:"one_indexed_overs"`
}

// MetricsConfig represents metrics exposure
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HealthConfig represents the health check listener
type HealthConfig struct {
	Port string `mapstructure:"port"`
}

// TracingConfig represents AWS X-Ray tracing
type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	ServiceName  string  `mapstructure:"service_name"`
	SamplingRate float64 `mapstructure:"sampling_rate" validate:"gte=0,lte=1"`
	DaemonAddr   string  `mapstructure:"daemon_addr"`
}

// SecretsConfig represents the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns the connection URL for the prediction log database
func (d DatabaseConfig) DSN() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// ListenAddr returns the HTTP listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// GRPCListenAddr returns the gRPC listen address, empty when gRPC is disabled
func (c *Config) GRPCListenAddr() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf(":%d", c.Server.GRPCPort)
}

// Timeout returns the model call timeout
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
