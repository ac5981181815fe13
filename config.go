package consumer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Config describes a Consumer in a form suitable for configuration files.
type Config struct {
	// Endpoint is the resource root, absolute or root relative.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required"`

	DefaultParameters map[string]string `yaml:"default_parameters" mapstructure:"default_parameters"`
	DefaultHeaders    map[string]string `yaml:"default_headers" mapstructure:"default_headers"`

	CSRFHeader string `yaml:"csrf_header" mapstructure:"csrf_header" validate:"omitempty,printascii"`
	CSRFCookie string `yaml:"csrf_cookie" mapstructure:"csrf_cookie" validate:"omitempty,printascii"`

	// Timeout bounds a whole request including reading the body. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// MaxInFlight caps concurrent requests, 0 means no limit.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.CSRFHeader == "" {
		c.CSRFHeader = DefaultCSRFHeader
	}
	if c.CSRFCookie == "" {
		c.CSRFCookie = DefaultCSRFCookie
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
}

// Validate checks the configuration. Failures are reported as a
// *ConfigurationError naming the first offending field.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	names := make([]string, 0, len(verrs))
	for _, e := range verrs {
		names = append(names, e.Field())
	}
	return &ConfigurationError{Field: strings.Join(names, ", ")}
}

// NewFromConfig returns a Consumer built from cfg. The transport has its own
// cookie jar which also feeds the CSRF token lookup. opts are applied last.
func NewFromConfig[T any, PT Target[T]](cfg Config, opts ...Option) (*Consumer[T, PT], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jar := NewJar()
	transport := NewHTTPTransport(jar)
	transport.Client.Timeout = cfg.Timeout
	transport.MaxInFlight = cfg.MaxInFlight

	base := []Option{
		WithDefaultParameters(ParamsOf(cfg.DefaultParameters)),
		WithDefaultHeaders(cfg.DefaultHeaders),
		WithCSRF(cfg.CSRFHeader, cfg.CSRFCookie),
		WithCookies(JarCookies(jar, cfg.Endpoint)),
		WithTransport(transport),
	}
	return New[T, PT](cfg.Endpoint, append(base, opts...)...), nil
}
