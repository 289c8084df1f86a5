package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("invalid configuration")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Shield   ShieldConfig   `mapstructure:"shield"`
	Oracle   OracleConfig   `mapstructure:"oracle"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	TLSCertFile string `mapstructure:"tls_cert_file"`
	TLSKeyFile  string `mapstructure:"tls_key_file"`
	// APIKey, when set, is required in X-API-Key on every API route.
	APIKey string `mapstructure:"api_key"`
	// SecretKey signs admin JWTs. Analytics routes require one when set.
	SecretKey string `mapstructure:"secret_key"`

	CORSOrigins []string `mapstructure:"cors_origins"`
}

type ShieldConfig struct {
	BlockThreshold        float64 `mapstructure:"block_threshold"`
	FlagThreshold         float64 `mapstructure:"flag_threshold"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds"`
	CacheMaxEntries       int     `mapstructure:"cache_max_entries"`
	FailOpenOnOracleError bool    `mapstructure:"fail_open_on_oracle_error"`
	MaxPromptLength       int     `mapstructure:"max_prompt_length"`
	LedgerRetention       int     `mapstructure:"ledger_retention"`
}

type OracleConfig struct {
	Provider              string                 `mapstructure:"provider"`
	Model                 string                 `mapstructure:"model"`
	MaxTokens             int                    `mapstructure:"max_tokens"`
	TimeoutMs             int                    `mapstructure:"timeout_ms"`
	MaxRetries            int                    `mapstructure:"max_retries"`
	RetryBackoffMs        int                    `mapstructure:"retry_backoff_ms"`
	RetryBackoffCeilingMs int                    `mapstructure:"retry_backoff_ceiling_ms"`
	MaxReasonLength       int                    `mapstructure:"max_reason_length"`
	BreakerFailures       int                    `mapstructure:"breaker_failures"`
	BreakerTimeoutSeconds int                    `mapstructure:"breaker_timeout_seconds"`
	OpenAIAPIKey          string                 `mapstructure:"openai_api_key"`
	AnthropicAPIKey       string                 `mapstructure:"anthropic_api_key"`
	OpenRouterAPIKey      string                 `mapstructure:"openrouter_api_key"`
	GeminiAPIKey          string                 `mapstructure:"gemini_api_key"`
	AzureAPIKey           string                 `mapstructure:"azure_api_key"`
	Options               map[string]interface{} `mapstructure:"options"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type DatabaseConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	DBName       string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type KafkaConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      string `mapstructure:"port"`
	Topic     string `mapstructure:"topic"`
	ClientID  string `mapstructure:"client_id"`
	Workers   int    `mapstructure:"workers"`
	QueueSize int    `mapstructure:"queue_size"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// plain provider key variables are honoured next to the ORACLE_ prefixed ones
var envAliases = map[string][]string{
	"oracle.openai_api_key":     {"ORACLE_OPENAI_API_KEY", "OPENAI_API_KEY"},
	"oracle.anthropic_api_key":  {"ORACLE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	"oracle.openrouter_api_key": {"ORACLE_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
	"oracle.gemini_api_key":     {"ORACLE_GEMINI_API_KEY", "GEMINI_API_KEY"},
	"oracle.azure_api_key":      {"ORACLE_AZURE_API_KEY", "AZURE_OPENAI_API_KEY"},
	"oracle.provider":           {"ORACLE_PROVIDER", "LLM_PROVIDER"},
}

// Load reads config.yaml from configPath (or ./config, or .) and overlays
// environment variables, e.g. SHIELD_BLOCK_THRESHOLD. A missing file is not
// an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaultValues(v)
	for key, envs := range envAliases {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaultValues also registers every key, which AutomaticEnv needs to
// see a variable during Unmarshal.
func setDefaultValues(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.tls_cert_file", "")
	v.SetDefault("server.tls_key_file", "")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.secret_key", "")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("shield.block_threshold", 0.8)
	v.SetDefault("shield.flag_threshold", 0.4)
	v.SetDefault("shield.cache_ttl_seconds", 3600)
	v.SetDefault("shield.cache_max_entries", 10000)
	v.SetDefault("shield.fail_open_on_oracle_error", false)
	v.SetDefault("shield.max_prompt_length", 50000)
	v.SetDefault("shield.ledger_retention", 100000)

	v.SetDefault("oracle.provider", "openai")
	v.SetDefault("oracle.model", "")
	v.SetDefault("oracle.max_tokens", 200)
	v.SetDefault("oracle.timeout_ms", 10000)
	v.SetDefault("oracle.max_retries", 2)
	v.SetDefault("oracle.retry_backoff_ms", 200)
	v.SetDefault("oracle.retry_backoff_ceiling_ms", 2000)
	v.SetDefault("oracle.max_reason_length", 500)
	v.SetDefault("oracle.breaker_failures", 5)
	v.SetDefault("oracle.breaker_timeout_seconds", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.tls", false)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "prompt_shield")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 25)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.host", "localhost")
	v.SetDefault("kafka.port", "9092")
	v.SetDefault("kafka.topic", "prompt-shield.attacks")
	v.SetDefault("kafka.client_id", "prompt-shield")
	v.SetDefault("kafka.workers", 2)
	v.SetDefault("kafka.queue_size", 1000)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		problems = append(problems, "server.tls_cert_file and server.tls_key_file must be set together")
	}
	s := c.Shield
	if s.BlockThreshold < 0 || s.BlockThreshold > 1 || s.FlagThreshold < 0 || s.FlagThreshold > 1 {
		problems = append(problems, "shield thresholds must lie in [0,1]")
	} else if s.FlagThreshold > s.BlockThreshold {
		problems = append(problems, "shield.flag_threshold exceeds shield.block_threshold")
	}
	if s.CacheTTLSeconds <= 0 {
		problems = append(problems, "shield.cache_ttl_seconds must be positive")
	}
	if s.MaxPromptLength <= 0 {
		problems = append(problems, "shield.max_prompt_length must be positive")
	}
	o := c.Oracle
	if o.TimeoutMs <= 0 {
		problems = append(problems, "oracle.timeout_ms must be positive")
	}
	if o.MaxRetries < 0 {
		problems = append(problems, "oracle.max_retries must not be negative")
	}
	if o.RetryBackoffMs < 0 || o.RetryBackoffCeilingMs < o.RetryBackoffMs {
		problems = append(problems, "oracle retry backoff must satisfy 0 <= backoff <= ceiling")
	}
	if c.Metrics.Enabled && c.Metrics.Port == c.Server.Port {
		problems = append(problems, "metrics.port must differ from server.port")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
