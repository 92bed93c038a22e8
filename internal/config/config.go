package config // package config loads application configuration from viper (defaults, file, env, flags)

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration values.  Each leaf maps to a viper
// key such as "app.port", which is also readable from the environment as
// APP_PORT.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     int    // HTTP port to listen on
	LogLevel string // debug, info, warn or error

	Docs     DocsConfig
	Static   StaticConfig
	Health   HealthConfig
	Cache    CacheConfig
	Redis    RedisConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

// DocsConfig locates the two OpenAPI documents served verbatim.
type DocsConfig struct {
	V3Path  string // served at /v3/api-docs
	V31Path string // served at /v3.1/api-docs
}

// StaticConfig locates the static asset mounts.
type StaticConfig struct {
	SwaggerRoot string        // UI bundle served under /swagger/*
	WebjarsRoot string        // vendored swagger-ui served under /webjars/*
	MaxAge      time.Duration // Cache-Control max-age for the cached mount
}

// HealthConfig controls the probe registry.
type HealthConfig struct {
	ProbeTimeout     time.Duration
	SystemProbes     bool
	MemoryMaxPercent float64
	LoadMaxPerCPU    float64
	EventsEnabled    bool
	EventsQueue      string
	EventsTimeout    time.Duration
}

// RabbitMQConfig holds the broker URL used by the rabbitmq probe and the
// health event publisher/consumer.  An empty URL disables all of them.
type RabbitMQConfig struct {
	URL string
}

// SetDefaults registers every known key so that environment-only values are
// visible to viper and the server runs without any configuration at all.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", 8080)
	v.SetDefault("log.level", "info")

	v.SetDefault("docs.v3_path", "swagger/apidoc.yaml")
	v.SetDefault("docs.v31_path", "swagger/openapi-3.1.yaml")

	v.SetDefault("static.swagger_root", "swagger")
	v.SetDefault("static.webjars_root", "webjars/swagger-ui/4.11.1")
	v.SetDefault("static.max_age", "24h")

	v.SetDefault("health.probe_timeout", "1s")
	v.SetDefault("health.system_probes", false)
	v.SetDefault("health.memory_max_percent", 95.0)
	v.SetDefault("health.load_max_per_cpu", 4.0)
	v.SetDefault("health.events_enabled", false)
	v.SetDefault("health.events_queue", "health.reported")
	v.SetDefault("health.events_timeout", "2s")

	setCacheDefaults(v)
	setRedisDefaults(v)
	setDatabaseDefaults(v)

	v.SetDefault("rabbitmq.url", "")
}

// BindEnv wires environment lookups: "docs.v3_path" is read from DOCS_V3_PATH.
func BindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration values from v and returns a Config.
func Load(v *viper.Viper) Config {
	return Config{
		Env:      v.GetString("app.env"),
		Port:     v.GetInt("app.port"),
		LogLevel: v.GetString("log.level"),
		Docs: DocsConfig{
			V3Path:  v.GetString("docs.v3_path"),
			V31Path: v.GetString("docs.v31_path"),
		},
		Static: StaticConfig{
			SwaggerRoot: v.GetString("static.swagger_root"),
			WebjarsRoot: v.GetString("static.webjars_root"),
			MaxAge:      v.GetDuration("static.max_age"),
		},
		Health: HealthConfig{
			ProbeTimeout:     v.GetDuration("health.probe_timeout"),
			SystemProbes:     v.GetBool("health.system_probes"),
			MemoryMaxPercent: v.GetFloat64("health.memory_max_percent"),
			LoadMaxPerCPU:    v.GetFloat64("health.load_max_per_cpu"),
			EventsEnabled:    v.GetBool("health.events_enabled"),
			EventsQueue:      v.GetString("health.events_queue"),
			EventsTimeout:    v.GetDuration("health.events_timeout"),
		},
		Cache:    loadCacheConfig(v),
		Redis:    loadRedisConfig(v),
		Database: loadDatabaseConfig(v),
		RabbitMQ: RabbitMQConfig{URL: v.GetString("rabbitmq.url")},
	}
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports every invalid value at once.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("app.port out of range: %d", c.Port))
	}
	if c.Docs.V3Path == "" || c.Docs.V31Path == "" {
		errs = append(errs, errors.New("docs paths must not be empty"))
	}
	if c.Static.SwaggerRoot == "" || c.Static.WebjarsRoot == "" {
		errs = append(errs, errors.New("static roots must not be empty"))
	}
	if c.Static.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("static.max_age must not be negative: %s", c.Static.MaxAge))
	}
	if c.Health.ProbeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("health.probe_timeout must be positive: %s", c.Health.ProbeTimeout))
	}
	if c.Health.EventsEnabled && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("health.events_enabled requires rabbitmq.url"))
	}
	return errors.Join(errs...)
}
