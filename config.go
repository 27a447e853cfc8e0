package jsonbind

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Access strategies accepted by Config.Access.
const (
	AccessField          = "field"
	AccessMethod         = "method"
	AccessFieldAndMethod = "field-and-method"
)

var validAccess = map[string]bool{
	"":                   true,
	AccessField:          true,
	AccessMethod:         true,
	AccessFieldAndMethod: true,
}

// Config is the serializable form of the engine settings.
type Config struct {
	Naming                     string        `yaml:"naming"`
	Order                      OrderStrategy `yaml:"order"`
	CaseInsensitive            bool          `yaml:"case_insensitive"`
	Nillable                   bool          `yaml:"nillable"`
	FailOnMissingCreatorValues bool          `yaml:"fail_on_missing_creator_values"`
	Access                     string        `yaml:"access"`
	CacheSize                  int           `yaml:"cache_size"`
}

// Validate checks every value against the known strategies.
func (c *Config) Validate() error {
	if c.Naming != "" {
		if _, ok := NamingByName(c.Naming); !ok {
			return newConfigError(ErrInvalidConfig, nil, "naming", fmt.Sprintf("unknown naming strategy %q", c.Naming))
		}
	}
	if !IsValidOrderStrategy(c.Order) {
		return newConfigError(ErrInvalidConfig, nil, "order", fmt.Sprintf("unknown order strategy %q", c.Order))
	}
	if !validAccess[c.Access] {
		return newConfigError(ErrInvalidConfig, nil, "access", fmt.Sprintf("unknown access strategy %q", c.Access))
	}
	if c.CacheSize < 0 {
		return newConfigError(ErrInvalidConfig, nil, "cache_size", fmt.Sprintf("negative cache size %d", c.CacheSize))
	}
	return nil
}

// ParseConfig decodes and validates a YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, newConfigError(ErrInvalidConfig, nil, "", err.Error())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// options converts the configuration into engine options.
func (c *Config) options() []Option {
	var opts []Option
	if c.Naming != "" {
		naming, _ := NamingByName(c.Naming)
		opts = append(opts, WithNaming(naming))
		if c.Naming == NamingCaseInsensitive {
			opts = append(opts, WithCaseInsensitive(true))
		}
	}
	if c.Order != "" {
		opts = append(opts, WithOrder(c.Order))
	}
	if c.CaseInsensitive {
		opts = append(opts, WithCaseInsensitive(true))
	}
	opts = append(opts,
		WithNillable(c.Nillable),
		WithFailOnMissingCreatorValues(c.FailOnMissingCreatorValues),
	)
	switch c.Access {
	case AccessMethod:
		opts = append(opts, WithDiscoverer(MethodDiscovery{}))
	case AccessFieldAndMethod:
		opts = append(opts, WithDiscoverer(FieldAndMethodDiscovery{}))
	case AccessField:
		opts = append(opts, WithDiscoverer(FieldDiscovery{}))
	}
	if c.CacheSize > 0 {
		opts = append(opts, WithCacheSize(c.CacheSize))
	}
	return opts
}
