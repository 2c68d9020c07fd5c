package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Databases DatabasesConfig `mapstructure:"databases"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Listen       string   `mapstructure:"listen"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// ProvidersConfig groups upstream AI provider settings.
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig configures the completion and embedding endpoints.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (o OpenAIConfig) Validate() error {
	if strings.TrimSpace(o.APIKey) == "" {
		return fmt.Errorf("providers.openai.api_key is required")
	}
	return nil
}

// DatabasesConfig groups storage backends.
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("databases.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("databases.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a Postgres connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port for the Redis client.
func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// ChatConfig tunes the retrieval and answer pipeline.
type ChatConfig struct {
	MatchThreshold     float64       `mapstructure:"match_threshold"`
	MatchCount         int           `mapstructure:"match_count"`
	LexicalFloor       float64       `mapstructure:"lexical_floor"`
	EmbeddingCacheTTL  time.Duration `mapstructure:"embedding_cache_ttl"`
	HistoryLimit       int           `mapstructure:"history_limit"`
	RetentionDays      int           `mapstructure:"retention_days"`
	RetentionCron      string        `mapstructure:"retention_cron"`
	StreamMinDelay     time.Duration `mapstructure:"stream_min_delay"`
	StreamMaxDelay     time.Duration `mapstructure:"stream_max_delay"`
	EmbeddingDimension int           `mapstructure:"embedding_dimension"`
}

// Normalize applies pipeline defaults for unset values.
func (c ChatConfig) Normalize() ChatConfig {
	if c.MatchThreshold <= 0 {
		c.MatchThreshold = 0.5
	}
	if c.MatchCount <= 0 {
		c.MatchCount = 3
	}
	if c.LexicalFloor <= 0 {
		c.LexicalFloor = 0.1
	}
	if c.EmbeddingCacheTTL <= 0 {
		c.EmbeddingCacheTTL = 24 * time.Hour
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 20
	}
	if c.RetentionCron == "" {
		c.RetentionCron = "@daily"
	}
	if c.StreamMinDelay <= 0 {
		c.StreamMinDelay = 30 * time.Millisecond
	}
	if c.StreamMaxDelay <= c.StreamMinDelay {
		c.StreamMaxDelay = c.StreamMinDelay + 20*time.Millisecond
	}
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = 1536
	}
	return c
}

// TelemetryConfig contains metrics settings.
type TelemetryConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MetricsPort int  `mapstructure:"metrics_port"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort < 0 {
		return fmt.Errorf("telemetry.metrics_port cannot be negative")
	}
	return nil
}

// LoadConfig loads config from file, with ASISTAN_* env overrides.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.listen", ":10010")
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.temperature", 0.3)
	viper.SetDefault("providers.openai.timeout", "60s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("ASISTAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Chat = config.Chat.Normalize()

	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if err := config.Databases.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
