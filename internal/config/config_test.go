package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
)

func newDefaultViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := FromViper(newDefaultViper())
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

	require.Equal(t, "libsql", cfg.Store.Driver)
	require.NotEmpty(t, cfg.Store.Path)

	require.Equal(t, 20, cfg.Limits.MaxRequests)
	require.Equal(t, time.Minute, cfg.Limits.Window)
	require.Equal(t, time.Hour, cfg.Limits.SessionMaxAge)

	require.Empty(t, cfg.Cache.Disabled)

	require.Equal(t, "gemini", cfg.GenAI.Provider)
	require.Equal(t, "gemini-2.5-flash", cfg.GenAI.Model)
	require.Equal(t, "text-embedding-004", cfg.GenAI.EmbeddingModel)
	require.Equal(t, 60*time.Second, cfg.GenAI.Timeout)

	require.Equal(t, 8, cfg.RAG.TopK)
	require.Equal(t, 1000, cfg.RAG.ChunkSize)
	require.Equal(t, 300, cfg.RAG.ChunkOverlap)

	require.True(t, cfg.Tools.Enabled)
	require.Equal(t, "https://pypi.org", cfg.Tools.PyPIBaseURL)
	require.Equal(t, 10*time.Second, cfg.Tools.FetchTimeout)

	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, 9090, cfg.Metrics.Port)
}

func TestFromViperOverrides(t *testing.T) {
	v := newDefaultViper()
	v.Set("limits.window", "90s")
	v.Set("rag.top_k", 3)
	v.Set("cache.disabled", "translation,vector-search")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, cfg.Limits.Window)
	require.Equal(t, 3, cfg.RAG.TopK)

	regions, err := cfg.Cache.DisabledRegions()
	require.NoError(t, err)
	require.Equal(t, []cache.Region{cache.RegionTranslation, cache.RegionVectorSearch}, regions)
}

func TestFromViperRejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"negative max requests", "limits.max_requests", -1},
		{"zero window", "limits.window", "0s"},
		{"zero top k", "rag.top_k", 0},
		{"zero chunk size", "rag.chunk_size", 0},
		{"overlap too large", "rag.chunk_overlap", 1000},
		{"unknown cache region", "cache.disabled", "tranlsation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newDefaultViper()
			v.Set(tt.key, tt.value)
			_, err := FromViper(v)
			require.Error(t, err)
		})
	}
}

func TestDisabledRegionsRejectsUnknownName(t *testing.T) {
	c := CacheConfig{Disabled: []string{"translation", "nope"}}
	_, err := c.DisabledRegions()
	require.Error(t, err)
}

func TestDefaultStorePath(t *testing.T) {
	require.NotEmpty(t, DefaultStorePath())
}
