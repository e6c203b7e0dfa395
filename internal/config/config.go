package config

import (
	"time"

	infraconfig "github.com/sivakumaru2002/devops-ease-access/infrastructure/config"
)

// Default configuration values.
const (
	defaultServiceName = "devops-ease-access"
	defaultServicePort = 8000
	defaultVersion     = "0.1.0"

	defaultSessionTTL  = 30 * time.Minute
	defaultCacheTTL    = 120 * time.Second
	defaultCachePrefix = "devops-ease-access:"
	defaultRedisAddr   = "localhost:6379"

	defaultProviderURL     = "https://dev.azure.com"
	defaultProviderTimeout = 20 * time.Second
	defaultRunsTop         = 50
	defaultBuildsTop       = 100
	defaultBurst           = 10

	defaultMaxFailedRuns       = 20
	defaultLogSummaryLength    = 180
	defaultTimelineConcurrency = 8

	defaultSummarizerProvider = "none"
	defaultSummarizerTimeout  = 30 * time.Second
	defaultTemperature        = 0.2
	defaultMaxTokens          = 1024
	defaultAPIVersion         = "2024-02-15-preview"

	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "json"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds the application configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Session    SessionConfig    `yaml:"session"`
	Cache      CacheConfig      `yaml:"cache"`
	Redis      RedisConfig      `yaml:"redis"`
	Provider   ProviderConfig   `yaml:"provider"`
	Insights   InsightsConfig   `yaml:"insights"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Security   SecurityConfig   `yaml:"security"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	CORS       CORSConfig       `yaml:"cors"`
}

// ServiceConfig holds service-level configuration.
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `env:"SERVICE_VERSION" yaml:"version"`
	Port    int    `env:"PORT"            yaml:"port"`
	Debug   bool   `env:"APP_DEBUG"       yaml:"debug"`
}

// SessionConfig controls session lifetime. Expiry is fixed from creation.
type SessionConfig struct {
	TTL time.Duration `env:"SESSION_TTL" yaml:"ttl"`
}

// CacheConfig controls the analytics cache.
type CacheConfig struct {
	TTL     time.Duration `env:"CACHE_TTL"     yaml:"ttl"`
	Backend string        `env:"CACHE_BACKEND" yaml:"backend"`
	Prefix  string        `env:"CACHE_PREFIX"  yaml:"prefix"`
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"  yaml:"address"`
	Password string `env:"REDIS_PASSWORD" yaml:"password"`
	DB       int    `env:"REDIS_DB"       yaml:"db"`
}

// ProviderConfig configures the Azure DevOps REST client.
type ProviderConfig struct {
	BaseURL   string        `env:"AZDO_BASE_URL"   yaml:"base_url"`
	Timeout   time.Duration `env:"AZDO_TIMEOUT"    yaml:"timeout"`
	RunsTop   int           `env:"AZDO_RUNS_TOP"   yaml:"runs_top"`
	BuildsTop int           `env:"AZDO_BUILDS_TOP" yaml:"builds_top"`

	// RequestsPerSecond paces all provider calls; 0 disables pacing.
	RequestsPerSecond float64 `env:"AZDO_REQUESTS_PER_SECOND" yaml:"requests_per_second"`
	Burst             int     `env:"AZDO_BURST"               yaml:"burst"`
}

// InsightsConfig bounds error-intelligence reports.
type InsightsConfig struct {
	MaxFailedRuns       int `env:"INSIGHTS_MAX_FAILED_RUNS"      yaml:"max_failed_runs"`
	LogSummaryLength    int `env:"INSIGHTS_LOG_SUMMARY_LENGTH"   yaml:"log_summary_length"`
	TimelineConcurrency int `env:"INSIGHTS_TIMELINE_CONCURRENCY" yaml:"timeline_concurrency"`
}

// SummarizerConfig configures the optional AI summary provider.
type SummarizerConfig struct {
	Provider    string        `env:"SUMMARIZER_PROVIDER"      yaml:"provider"`
	Endpoint    string        `env:"AZURE_OPENAI_ENDPOINT"    yaml:"endpoint"`
	APIKey      string        `env:"SUMMARIZER_API_KEY"       yaml:"api_key"`
	Deployment  string        `env:"AZURE_OPENAI_DEPLOYMENT"  yaml:"deployment"`
	APIVersion  string        `env:"AZURE_OPENAI_API_VERSION" yaml:"api_version"`
	Model       string        `env:"SUMMARIZER_MODEL"         yaml:"model"`
	Timeout     time.Duration `env:"SUMMARIZER_TIMEOUT"       yaml:"timeout"`
	Temperature float64       `env:"SUMMARIZER_TEMPERATURE"   yaml:"temperature"`
	MaxTokens   int           `env:"SUMMARIZER_MAX_TOKENS"    yaml:"max_tokens"`
}

// SecurityConfig holds the credential encryption key (base64, 32 bytes).
// Empty means a per-process key is generated.
type SecurityConfig struct {
	EncryptionKey string `env:"ENCRYPTION_KEY" yaml:"encryption_key"`
}

// AuthConfig enables JWT protection of /api when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ORIGINS" yaml:"allowed_origins"`
}

// Load loads configuration from the specified path.
func Load(path string) (*Config, error) {
	return infraconfig.LoadWithDefaults[Config](path, setDefaults)
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setStoreDefaults(cfg)
	setProviderDefaults(&cfg.Provider)
	setInsightsDefaults(&cfg.Insights)
	setSummarizerDefaults(&cfg.Summarizer)
	setLoggingDefaults(&cfg.Logging)
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = defaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
}

func setStoreDefaults(cfg *Config) {
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = defaultSessionTTL
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = defaultCachePrefix
	}
	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddr
	}
}

func setProviderDefaults(p *ProviderConfig) {
	if p.BaseURL == "" {
		p.BaseURL = defaultProviderURL
	}
	if p.Timeout == 0 {
		p.Timeout = defaultProviderTimeout
	}
	if p.RunsTop == 0 {
		p.RunsTop = defaultRunsTop
	}
	if p.BuildsTop == 0 {
		p.BuildsTop = defaultBuildsTop
	}
	if p.RequestsPerSecond > 0 && p.Burst == 0 {
		p.Burst = defaultBurst
	}
}

func setInsightsDefaults(in *InsightsConfig) {
	if in.MaxFailedRuns == 0 {
		in.MaxFailedRuns = defaultMaxFailedRuns
	}
	if in.LogSummaryLength == 0 {
		in.LogSummaryLength = defaultLogSummaryLength
	}
	if in.TimelineConcurrency == 0 {
		in.TimelineConcurrency = defaultTimelineConcurrency
	}
}

func setSummarizerDefaults(s *SummarizerConfig) {
	if s.Provider == "" {
		s.Provider = defaultSummarizerProvider
	}
	if s.Timeout == 0 {
		s.Timeout = defaultSummarizerTimeout
	}
	if s.Temperature == 0 {
		s.Temperature = defaultTemperature
	}
	if s.MaxTokens == 0 {
		s.MaxTokens = defaultMaxTokens
	}
	if s.APIVersion == "" {
		s.APIVersion = defaultAPIVersion
	}
}

func setLoggingDefaults(log *LoggingConfig) {
	if log.Level == "" {
		log.Level = defaultLoggingLevel
	}
	if log.Format == "" {
		log.Format = defaultLoggingFmt
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := infraconfig.ValidatePort("service.port", c.Service.Port); err != nil {
		return err
	}
	if err := infraconfig.ValidateOneOf("cache.backend", c.Cache.Backend,
		CacheBackendMemory, CacheBackendRedis); err != nil {
		return err
	}
	if err := infraconfig.ValidateOneOf("summarizer.provider", c.Summarizer.Provider,
		"none", "azure-openai", "openai", "anthropic"); err != nil {
		return err
	}
	if err := infraconfig.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Session.TTL < 0 {
		return &infraconfig.ValidationError{Field: "session.ttl", Message: "must not be negative"}
	}
	if c.Cache.TTL < 0 {
		return &infraconfig.ValidationError{Field: "cache.ttl", Message: "must not be negative"}
	}
	if c.Provider.RequestsPerSecond < 0 {
		return &infraconfig.ValidationError{Field: "provider.requests_per_second", Message: "must not be negative"}
	}
	if c.Insights.MaxFailedRuns < 0 {
		return &infraconfig.ValidationError{Field: "insights.max_failed_runs", Message: "must not be negative"}
	}
	return nil
}

// RedisEnabled reports whether the cache is backed by Redis.
func (c *Config) RedisEnabled() bool {
	return c.Cache.Backend == CacheBackendRedis
}
