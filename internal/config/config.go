package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Hostname          string  `mapstructure:"hostname"`
	RefreshSchedule   string  `mapstructure:"refresh_schedule" validate:"required"`
	UserAgent         string  `mapstructure:"user_agent"`
	PageURLTemplate   string  `mapstructure:"page_url_template" validate:"required,contains=%s"`
	DiscoveryTimeout  float64 `mapstructure:"discovery_timeout" validate:"gt=0"`
	QueryTimeout      float64 `mapstructure:"query_timeout" validate:"gt=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
}

// LoggingConfig holds the logging-related configuration.
type LoggingConfig struct {
	Level string `mapstructure:"log_level"`
}

// RegistryConfig selects where sensor states are published.
type RegistryConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=etcd redis"`
}

// EtcdConfig holds etcd-related configuration.
type EtcdConfig struct {
	Endpoints         []string `mapstructure:"etcd_endpoints"`
	PathPrefix        string   `mapstructure:"etcd_path_prefix"`
	DialTimeout       float64  `mapstructure:"etcd_dial_timeout"`
	LockTTL           float64  `mapstructure:"etcd_lock_ttl"`
	LockTimeout       float64  `mapstructure:"etcd_lock_timeout"`
	LockRetryInterval float64  `mapstructure:"etcd_lock_retry_interval"`
}

// RedisConfig holds redis-related configuration.
type RedisConfig struct {
	Addr      string  `mapstructure:"redis_addr"`
	Password  string  `mapstructure:"redis_password"`
	DB        int     `mapstructure:"redis_db"`
	KeyPrefix string  `mapstructure:"redis_key_prefix"`
	StateTTL  float64 `mapstructure:"redis_state_ttl"` // seconds, 0 keeps states forever
	LockTTL   float64 `mapstructure:"redis_lock_ttl"`
}

// AddressConfig is one household to track.
type AddressConfig struct {
	Municipality string              `mapstructure:"municipality" validate:"required,oneof=kavlinge lomma svedala"`
	Street       string              `mapstructure:"street" validate:"required"`
	Number       string              `mapstructure:"number" validate:"required"`
	City         string              `mapstructure:"city" validate:"required"`
	APIBase      string              `mapstructure:"api_base" validate:"omitempty,url"`
	Labels       map[string][]string `mapstructure:"labels"`
}

// Address converts the entry into its domain form.
func (a AddressConfig) Address() domain.Address {
	return domain.Address{
		Municipality: domain.Municipality(a.Municipality),
		Street:       a.Street,
		Number:       a.Number,
		City:         a.City,
	}
}

// Config is the top-level configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   LoggingConfig   `mapstructure:"log"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Addresses []AddressConfig `mapstructure:"addresses" validate:"required,min=1,dive"`
}

// InitConfig performs the initial configuration: setting defaults, specifying the config file, and reading it.
// An empty configFile looks for config.yaml in the current directory.
func InitConfig(configFile string) error {
	// A missing .env is fine; real environment variables still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	SetDefaults(viper.GetViper())

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config") // Looks for config.yaml
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".") // current directory
	}

	// Read the config file if available.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// If the file is not found, just continue with defaults and env vars.
	}

	// Enable automatic environment variable binding.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return nil
}

// SetDefaults registers the default for every setting on v.
func SetDefaults(v *viper.Viper) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown-host"
	}
	v.SetDefault("app.hostname", hostname)
	v.SetDefault("app.refresh_schedule", "@every 6h")
	v.SetDefault("app.user_agent", "")
	v.SetDefault("app.page_url_template", "https://www.sysav.se/privat/min-sophamtning/%s")
	v.SetDefault("app.discovery_timeout", 20.0)
	v.SetDefault("app.query_timeout", 25.0)
	v.SetDefault("app.requests_per_second", 0.0)
	v.SetDefault("log.log_level", "INFO")
	v.SetDefault("registry.backend", "etcd")
	v.SetDefault("etcd.etcd_endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.etcd_path_prefix", "/sysav")
	v.SetDefault("etcd.etcd_dial_timeout", 2.0)
	v.SetDefault("etcd.etcd_lock_ttl", 5.0)
	v.SetDefault("etcd.etcd_lock_timeout", 2.0)
	v.SetDefault("etcd.etcd_lock_retry_interval", 0.1)
	v.SetDefault("redis.redis_addr", "localhost:6379")
	v.SetDefault("redis.redis_password", "")
	v.SetDefault("redis.redis_db", 0)
	v.SetDefault("redis.redis_key_prefix", "sysav")
	v.SetDefault("redis.redis_state_ttl", 0.0)
	v.SetDefault("redis.redis_lock_ttl", 5.0)
}

// Load unmarshals the configuration into the Config struct.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom unmarshals and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	for i := range config.Addresses {
		a := &config.Addresses[i]
		// Unknown names are left as-is for Validate to report.
		if m, err := domain.ParseMunicipality(a.Municipality); err == nil {
			a.Municipality = string(m)
		}
		a.APIBase = strings.TrimSpace(a.APIBase)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints; registry-specific fields are only
// checked for the selected backend.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Registry.Backend {
	case "etcd":
		if len(c.Etcd.Endpoints) == 0 {
			return fmt.Errorf("invalid configuration: etcd.etcd_endpoints must not be empty")
		}
	case "redis":
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return fmt.Errorf("invalid configuration: redis.redis_addr must not be empty")
		}
	}
	seen := make(map[string]int, len(c.Addresses))
	for i, a := range c.Addresses {
		id := a.Address().ID()
		if j, ok := seen[id]; ok {
			return fmt.Errorf("invalid configuration: addresses[%d] and addresses[%d] share the id %q", j, i, id)
		}
		seen[id] = i
	}
	return nil
}
