package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/lesstokens/security"
)

const (
	defaultTimeout = 30 * time.Second
)

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to all request paths. A trailing slash is ignored.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds each call. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Auth is applied to every request.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// TLS configures the default transport. Ignored when HTTPClient is set.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// HTTPClient replaces the default transport client (tests, proxies).
	HTTPClient *http.Client `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("httpclient: %w", err)
	}
	return nil
}
