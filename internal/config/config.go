// Package config loads the gateway's configuration surface (spec.md
// section 6) via viper, reading environment variables (prefix GATEWAY_)
// and an optional config.yaml, matching the teacher repo's dependency on
// spf13/viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/langdock/gateway-core/internal/models"
)

// Config is the fully-resolved configuration surface.
type Config struct {
	APIKey                         string
	BaseURL                        string
	TimeoutSeconds                 int
	HealthCheckTimeoutSeconds      int
	MaxRetries                     int
	CircuitBreakerFailureThreshold int
	CircuitBreakerCooldownSeconds  int
	MaxConnectionsPerServer        int
	ConnectionLifetimeMinutes      int
	UseHTTP2                       bool

	DefaultModel      models.ModelID
	LargeContextModel models.ModelID
	BalancedModel     models.ModelID

	PricingSeedPath string
	DatabasePath    string
	ListenAddr      string
}

func defaults(v *viper.Viper) {
	v.SetDefault("timeoutseconds", 60)
	v.SetDefault("healthchecktimeoutseconds", 5)
	v.SetDefault("maxretries", 2)
	v.SetDefault("circuitbreakerfailurethreshold", 3)
	v.SetDefault("circuitbreakercooldownseconds", 30)
	v.SetDefault("maxconnectionsperserver", 100)
	v.SetDefault("connectionlifetimeminutes", 5)
	v.SetDefault("usehttp2", true)
	v.SetDefault("defaultmodel", "mock/gpt-4-default")
	v.SetDefault("largecontextmodel", "mock/gpt-4-large-context")
	v.SetDefault("balancedmodel", "mock/gpt-4-balanced")
	v.SetDefault("pricingseedpath", "configs/pricing.yaml")
	v.SetDefault("databasepath", "gateway.db")
	v.SetDefault("listenaddr", ":8080")
	v.SetDefault("baseurl", "http://localhost:8001")
}

// Load reads configuration from configPath (optional, may not exist)
// and the GATEWAY_ environment prefix, with env taking precedence.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("gateway")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
			log.WithField("path", configPath).Debug("config: no config file found, using env/defaults")
		}
	}

	cfg := &Config{
		APIKey:                         v.GetString("apikey"),
		BaseURL:                        v.GetString("baseurl"),
		TimeoutSeconds:                 v.GetInt("timeoutseconds"),
		HealthCheckTimeoutSeconds:      v.GetInt("healthchecktimeoutseconds"),
		MaxRetries:                     v.GetInt("maxretries"),
		CircuitBreakerFailureThreshold: v.GetInt("circuitbreakerfailurethreshold"),
		CircuitBreakerCooldownSeconds:  v.GetInt("circuitbreakercooldownseconds"),
		MaxConnectionsPerServer:        v.GetInt("maxconnectionsperserver"),
		ConnectionLifetimeMinutes:      v.GetInt("connectionlifetimeminutes"),
		UseHTTP2:                       v.GetBool("usehttp2"),
		DefaultModel:                   models.ModelID(v.GetString("defaultmodel")),
		LargeContextModel:              models.ModelID(v.GetString("largecontextmodel")),
		BalancedModel:                  models.ModelID(v.GetString("balancedmodel")),
		PricingSeedPath:                v.GetString("pricingseedpath"),
		DatabasePath:                   v.GetString("databasepath"),
		ListenAddr:                     v.GetString("listenaddr"),
	}

	if configPath != "" {
		v.OnConfigChange(func(e fsnotify.Event) {
			log.WithField("file", e.Name).Info("config: file changed; the loaded configuration is not updated until restart")
		})
		v.WatchConfig()
	}

	return cfg, nil
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HealthCheckTimeout returns HealthCheckTimeoutSeconds as a
// time.Duration.
func (c *Config) HealthCheckTimeout() time.Duration {
	return time.Duration(c.HealthCheckTimeoutSeconds) * time.Second
}

// CircuitBreakerCooldown returns CircuitBreakerCooldownSeconds as a
// time.Duration.
func (c *Config) CircuitBreakerCooldown() time.Duration {
	return time.Duration(c.CircuitBreakerCooldownSeconds) * time.Second
}
