package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// FromViper decodes the merged viper state into a validated Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// SetDefaults registers the default configuration values on a viper instance.
func SetDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	// Store
	v.SetDefault("store.driver", "libsql")
	v.SetDefault("store.path", DefaultStorePath())
	v.SetDefault("store.url", "")
	v.SetDefault("store.auth_token", "")

	// Rate limiting: 20 requests per trailing minute per session.
	v.SetDefault("limits.max_requests", 20)
	v.SetDefault("limits.window", "60s")
	v.SetDefault("limits.session_max_age", "1h")

	// Cache: every region enabled unless listed here.
	v.SetDefault("cache.disabled", []string{})

	// GenAI
	v.SetDefault("genai.provider", "gemini")
	v.SetDefault("genai.model", "gemini-2.5-flash")
	v.SetDefault("genai.embedding_model", "text-embedding-004")
	v.SetDefault("genai.timeout", "60s")
	v.SetDefault("genai.temperature", 0.7)
	v.SetDefault("genai.max_output_tokens", 4000)

	// Retrieval
	v.SetDefault("rag.top_k", 8)
	v.SetDefault("rag.chunk_size", 1000)
	v.SetDefault("rag.chunk_overlap", 300)

	// Tools
	v.SetDefault("tools.enabled", true)
	v.SetDefault("tools.pypi_base_url", "https://pypi.org")
	v.SetDefault("tools.fetch_timeout", "10s")

	// Logging & metrics
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// DefaultStorePath places the database under the user config directory,
// falling back to the working directory when it cannot be resolved.
func DefaultStorePath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "docassist.db"
	}
	return filepath.Join(base, "docassist", "docassist.db")
}
