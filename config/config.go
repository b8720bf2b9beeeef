// Package config loads waypoint configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Navigation NavigationConfig
	Cache      CacheConfig
	Session    SessionConfig
}

// NavigationConfig holds orchestrator settings.
type NavigationConfig struct {
	Timeout   time.Duration
	HomeRoute string `mapstructure:"home_route"`
}

// CacheConfig holds destination/state cache settings.
type CacheConfig struct {
	TTL     time.Duration
	MaxSize int `mapstructure:"max_size"`
}

// SessionConfig holds session lifecycle and authorization settings.
type SessionConfig struct {
	Timeout         time.Duration
	MaxPerUser      int           `mapstructure:"max_per_user"`
	RateLimitWindow time.Duration `mapstructure:"rate_limit_window"`
	RateLimitMax    int           `mapstructure:"rate_limit_max"`
	// RoutePermissions maps a route to the permissions that may open it.
	// A session needs any one of the listed permissions. Routes with no
	// entry require none.
	RoutePermissions map[string][]string `mapstructure:"route_permissions"`
}

// Load reads configuration from file and env. Env var overrides use prefix WAYPOINT_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("navigation.timeout", "5s")
	v.SetDefault("navigation.home_route", "home")
	v.SetDefault("cache.ttl", "30m")
	v.SetDefault("cache.max_size", 10)
	v.SetDefault("session.timeout", "30m")
	v.SetDefault("session.max_per_user", 3)
	v.SetDefault("session.rate_limit_window", "1s")
	v.SetDefault("session.rate_limit_max", 10)
	v.SetDefault("session.route_permissions", map[string][]string{
		"settings": {"user", "admin"},
		"profile":  {"user"},
		"admin":    {"admin"},
		"map":      {"location"},
	})

	v.SetConfigType("toml")

	cfgPath := os.Getenv("WAYPOINT_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "waypoint"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("WAYPOINT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
