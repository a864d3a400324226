package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dashboard and proxy
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	LLM       LLMConfig       `mapstructure:"llm"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// UpstreamConfig locates the external workflow engine. Each function of the
// engine is a fixed webhook path relative to BaseURL. The erase paths default
// to empty, which makes erase functionality opt-in.
type UpstreamConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	ChatPath         string `mapstructure:"chat_path"`
	UploadPath       string `mapstructure:"upload_path"`
	MetricsPath      string `mapstructure:"metrics_path"`
	RetrievalPath    string `mapstructure:"retrieval_path"`
	WorkflowTestPath string `mapstructure:"workflow_test_path"`
	EraseDocPath     string `mapstructure:"erase_doc_path"`
	EraseDocsPath    string `mapstructure:"erase_docs_path"`
}

// LLMConfig holds the text-generation provider configuration
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
}

// RateLimitConfig holds rate limiting configuration. When RedisAddr is set
// the counter store is shared across instances; otherwise it is in-process.
type RateLimitConfig struct {
	MaxRequests   int    `mapstructure:"max_requests"`
	WindowSeconds int    `mapstructure:"window_seconds"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables, e.g. RAGDASH_UPSTREAM_BASE_URL
	v.SetEnvPrefix("RAGDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Upstream.BaseURL = strings.TrimRight(cfg.Upstream.BaseURL, "/")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("upstream.base_url", "http://localhost:5678")
	v.SetDefault("upstream.api_key", "")
	v.SetDefault("upstream.chat_path", "/webhook/chat")
	v.SetDefault("upstream.upload_path", "/webhook/upload")
	v.SetDefault("upstream.metrics_path", "/webhook/metrics")
	v.SetDefault("upstream.retrieval_path", "/webhook/retrieval")
	v.SetDefault("upstream.workflow_test_path", "/webhook/workflow-test")
	v.SetDefault("upstream.erase_doc_path", "")
	v.SetDefault("upstream.erase_docs_path", "")

	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gemini-3-flash")
	v.SetDefault("llm.base_url", "")

	v.SetDefault("rate_limit.max_requests", 55)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.redis_addr", "")
	v.SetDefault("rate_limit.redis_password", "")
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Window returns the rate-limit window as a duration.
func (c *RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}
