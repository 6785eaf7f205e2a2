package config

import (
	"time"

	"github.com/kbukum/lesstokens/logger"
	"github.com/kbukum/lesstokens/observability"
	"github.com/kbukum/lesstokens/resilience"
	"github.com/kbukum/lesstokens/security"
	"github.com/kbukum/lesstokens/util"
	"github.com/kbukum/lesstokens/validation"
)

// Defaults applied by Config.ApplyDefaults.
const (
	DefaultBaseURL      = "https://lesstokens.hive-hub.ai"
	DefaultTimeout      = 30 * time.Second
	DefaultGatewayAddr  = ":8080"
	DefaultServiceName  = "lesstokens"
	DefaultEnvPrefix    = "LESSTOKENS"
	defaultShutdownWait = 10 * time.Second
)

// Config is the full configuration for the CLI and the gateway.
type Config struct {
	APIKey   string        `yaml:"api_key" mapstructure:"api_key" json:"api_key"`
	Provider string        `yaml:"provider" mapstructure:"provider" json:"provider"`
	BaseURL  string        `yaml:"base_url" mapstructure:"base_url" json:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout" json:"timeout" validate:"gte=0"`
	Retry    RetryConfig   `yaml:"retry" mapstructure:"retry" json:"retry"`
	// TLS applies to connections to the compression service.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls" json:"-"`

	LLM       LLMConfig            `yaml:"llm" mapstructure:"llm" json:"llm"`
	Logging   logger.Config        `yaml:"logging" mapstructure:"logging" json:"-"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry" json:"-"`
	Gateway   GatewayConfig        `yaml:"gateway" mapstructure:"gateway" json:"gateway"`
}

// RetryConfig mirrors resilience.RetryConfig for file/env loading. A nil
// MaxRetries means "use the default".
type RetryConfig struct {
	MaxRetries   *int          `yaml:"max_retries" mapstructure:"max_retries" json:"max_retries" validate:"omitempty,gte=0"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay" json:"initial_delay" validate:"gte=0"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay" json:"max_delay" validate:"gte=0"`
}

// LLMConfig holds the default vendor settings used by the CLI and gateway.
type LLMConfig struct {
	APIKey      string   `yaml:"api_key" mapstructure:"api_key" json:"api_key"`
	Model       string   `yaml:"model" mapstructure:"model" json:"model"`
	BaseURL     string   `yaml:"base_url" mapstructure:"base_url" json:"base_url" validate:"omitempty,url"`
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature" json:"temperature" validate:"omitempty,gte=0"`
	MaxTokens   *int     `yaml:"max_tokens" mapstructure:"max_tokens" json:"max_tokens" validate:"omitempty,gt=0"`
}

// GatewayConfig configures the HTTP gateway.
type GatewayConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" json:"shutdown_timeout"`

	TLS security.ServerTLSConfig `yaml:"tls" mapstructure:"tls" json:"-"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	def := resilience.DefaultRetryConfig()
	if c.Retry.MaxRetries == nil {
		c.Retry.MaxRetries = util.Ptr(def.MaxRetries)
	}
	if c.Retry.InitialDelay == 0 {
		c.Retry.InitialDelay = def.InitialDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = def.MaxDelay
	}
	if c.Gateway.Addr == "" {
		c.Gateway.Addr = DefaultGatewayAddr
	}
	if c.Gateway.ShutdownTimeout == 0 {
		c.Gateway.ShutdownTimeout = defaultShutdownWait
	}
	c.Logging.ApplyDefaults()
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}

// Validate checks field formats. Credentials are checked later by the SDK
// so that commands which do not need them still run.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return validation.New().Custom(false, "logging", err.Error()).Err()
	}
	if err := c.TLS.Validate(); err != nil {
		return validation.New().Custom(false, "tls", err.Error()).Err()
	}
	if err := c.Gateway.TLS.Validate(); err != nil {
		return validation.New().Custom(false, "gateway.tls", err.Error()).Err()
	}
	return nil
}

// RetryPolicy converts the loaded settings into a resilience.RetryConfig.
func (c *Config) RetryPolicy() resilience.RetryConfig {
	def := resilience.DefaultRetryConfig()
	def.MaxRetries = util.DerefOr(c.Retry.MaxRetries, def.MaxRetries)
	if c.Retry.InitialDelay > 0 {
		def.InitialDelay = c.Retry.InitialDelay
	}
	if c.Retry.MaxDelay > 0 {
		def.MaxDelay = c.Retry.MaxDelay
	}
	return def
}
