// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package config loads layered application configuration: built-in defaults,
// then an optional YAML file, then OSEH_* environment variables. Precedence
// is ENV > file > defaults. Load validates the result before returning it.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	LocalCache   LocalCacheConfig   `koanf:"local_cache"`
	Auth         AuthConfig         `koanf:"auth"`
	Entitlements EntitlementsConfig `koanf:"entitlements"`
	API          APIConfig          `koanf:"api"`
	Logging      LoggingConfig      `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development or production
	CORSOrigins []string      `koanf:"cors_origins"`
}

// DatabaseConfig configures the sqlite system of record.
type DatabaseConfig struct {
	Path        string        `koanf:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// RedisConfig configures the shared cache tier.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	PoolSize int    `koanf:"pool_size"`
}

// LocalCacheConfig configures the process-local disk cache.
type LocalCacheConfig struct {
	Path       string        `koanf:"path"`
	TTL        time.Duration `koanf:"ttl"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// AuthConfig configures token verification and minting. JWTSecret signs and
// verifies every HS256 token this service touches.
type AuthConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	Issuer     string        `koanf:"issuer"`
	FileJWTTTL time.Duration `koanf:"file_jwt_ttl"`
}

// EntitlementsConfig configures the entitlement provider client.
type EntitlementsConfig struct {
	ProviderURL        string        `koanf:"provider_url"`
	ProviderKey        string        `koanf:"provider_key"`
	ProviderTimeout    time.Duration `koanf:"provider_timeout"`
	RateLimitPerSecond float64       `koanf:"rate_limit_per_second"`
	RateLimitBurst     int           `koanf:"rate_limit_burst"`
	LocalTTL           time.Duration `koanf:"local_ttl"`
	SharedTTL          time.Duration `koanf:"shared_ttl"`
}

// APIConfig configures request handling limits.
type APIConfig struct {
	DefaultPageSize       int           `koanf:"default_page_size"`
	MaxPageSize           int           `koanf:"max_page_size"`
	RateLimitReqs         int           `koanf:"rate_limit_requests"`
	RateLimitWindow       time.Duration `koanf:"rate_limit_window"`
	ForceRefreshPerMinute int           `koanf:"force_refresh_per_minute"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns the built-in defaults, applied before the config file
// and environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path:        "/data/oseh.db",
			BusyTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "127.0.0.1:6379",
			Password: "",
			DB:       0,
			PoolSize: 0, // 0 = go-redis default (10 per CPU)
		},
		LocalCache: LocalCacheConfig{
			Path:       "/data/cache",
			TTL:        2 * time.Hour,
			GCInterval: 5 * time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret:  "",
			Issuer:     "oseh",
			FileJWTTTL: 30 * time.Minute,
		},
		Entitlements: EntitlementsConfig{
			ProviderURL:        "https://api.revenuecat.com/v1",
			ProviderKey:        "",
			ProviderTimeout:    10 * time.Second,
			RateLimitPerSecond: 8,
			RateLimitBurst:     16,
			LocalTTL:           time.Minute,
			SharedTTL:          24 * time.Hour,
		},
		API: APIConfig{
			DefaultPageSize:       25,
			MaxPageSize:           250,
			RateLimitReqs:         100,
			RateLimitWindow:       time.Minute,
			ForceRefreshPerMinute: 6,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that would make the service
// misbehave at runtime. It is called by Load; tests building configs by hand
// should call it too.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("server.environment must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}

	if c.LocalCache.Path == "" {
		return fmt.Errorf("local_cache.path is required")
	}
	if c.LocalCache.TTL <= 0 {
		return fmt.Errorf("local_cache.ttl must be positive")
	}

	if c.Server.Environment == "production" {
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Entitlements.ProviderKey == "" {
			return fmt.Errorf("entitlements.provider_key is required in production")
		}
	}
	if c.Auth.FileJWTTTL <= 0 {
		return fmt.Errorf("auth.file_jwt_ttl must be positive")
	}

	if c.Entitlements.RateLimitPerSecond <= 0 {
		return fmt.Errorf("entitlements.rate_limit_per_second must be positive")
	}
	if c.Entitlements.LocalTTL <= 0 || c.Entitlements.SharedTTL <= 0 {
		return fmt.Errorf("entitlements cache TTLs must be positive")
	}

	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size %d must be between 1 and api.max_page_size %d",
			c.API.DefaultPageSize, c.API.MaxPageSize)
	}
	if c.API.ForceRefreshPerMinute < 1 {
		return fmt.Errorf("api.force_refresh_per_minute must be at least 1")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

// Addr returns the host:port the HTTP server binds.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
