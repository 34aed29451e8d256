// Package config provides centralized configuration management for the
// assistant. Values come from a YAML config file, environment variables, and
// flag overrides, merged by viper; this package only defines the decoded
// shape and its validation.
package config

import (
	"fmt"
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
)

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Store   StoreConfig   `mapstructure:"store"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Cache   CacheConfig   `mapstructure:"cache"`
	GenAI   genai.Config  `mapstructure:"genai"`
	RAG     RAGConfig     `mapstructure:"rag"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// LimitsConfig configures the sliding-window rate limiter.
type LimitsConfig struct {
	MaxRequests   int           `mapstructure:"max_requests"`
	Window        time.Duration `mapstructure:"window"`
	SessionMaxAge time.Duration `mapstructure:"session_max_age"`
}

// CacheConfig lists regions whose memoization is switched off.
type CacheConfig struct {
	Disabled []string `mapstructure:"disabled"`
}

// DisabledRegions validates and converts the configured region names.
func (c CacheConfig) DisabledRegions() ([]cache.Region, error) {
	regions := make([]cache.Region, 0, len(c.Disabled))
	for _, name := range c.Disabled {
		region, err := cache.ParseRegion(name)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// RAGConfig configures retrieval and corpus indexing.
type RAGConfig struct {
	TopK         int `mapstructure:"top_k"`
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// ToolsConfig configures the optional tool steps.
type ToolsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PyPIBaseURL  string        `mapstructure:"pypi_base_url"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level: trace, debug, info, warn, error.
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Validate checks invariants that must fail at startup, not at request time.
func (c *Config) Validate() error {
	if c.Limits.MaxRequests < 0 {
		return fmt.Errorf("limits.max_requests must not be negative")
	}
	if c.Limits.Window <= 0 {
		return fmt.Errorf("limits.window must be positive")
	}
	if _, err := c.Cache.DisabledRegions(); err != nil {
		return err
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive")
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("rag.chunk_size must be positive")
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be smaller than rag.chunk_size")
	}
	return nil
}
