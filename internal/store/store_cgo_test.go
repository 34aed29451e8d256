//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/config"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	st, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenMemoryStore(t *testing.T) {
	st := openMemoryStore(t)
	require.Equal(t, "libsql", st.Driver())
}

func TestReplaceAndLoadChunks(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	chunks := []StoredChunk{
		{
			Chunk:     core.Chunk{Library: "pandas", Source: "pandas.md", Category: "dataframes", Content: "DataFrame basics", Index: 0},
			Embedding: []float64{0.1, 0.2, 0.3},
		},
		{
			Chunk:     core.Chunk{Library: "pandas", Source: "pandas.md", Category: "dataframes", Content: "GroupBy operations", Index: 1},
			Embedding: []float64{0.4, 0.5, 0.6},
		},
	}
	require.NoError(t, st.ReplaceChunks(ctx, "pandas", chunks))

	loaded, err := st.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	require.Equal(t, "DataFrame basics", loaded[0].Chunk.Content)
	require.Equal(t, []float64{0.4, 0.5, 0.6}, loaded[1].Embedding)
	require.NotEmpty(t, loaded[0].Chunk.ID)

	// Replacing overwrites the library's previous chunks.
	require.NoError(t, st.ReplaceChunks(ctx, "pandas", chunks[:1]))
	loaded, err = st.LoadChunks(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)

	counts, err := st.CountChunks(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]int{"pandas": 1}, counts)
}

func TestUsageHistory(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.RecordUsage(ctx, UsageRecord{
		SessionID: "sess-1",
		Question:  "how do I merge dataframes?",
		Language:  "en",
		Usage:     core.TokenUsage{PromptTokens: 500, CompletionTokens: 300, TotalTokens: 800},
		AskedAt:   base,
	}))
	require.NoError(t, st.RecordUsage(ctx, UsageRecord{
		SessionID: "sess-1",
		Question:  "kaip sujungti lenteles?",
		Language:  "lt",
		Usage:     core.TokenUsage{PromptTokens: 200, CompletionTokens: 100, TotalTokens: 300},
		AskedAt:   base.Add(time.Minute),
	}))
	require.NoError(t, st.RecordUsage(ctx, UsageRecord{
		SessionID: "sess-2",
		Question:  "what is numpy broadcasting?",
		Language:  "en",
		Usage:     core.TokenUsage{TotalTokens: 50},
		AskedAt:   base.Add(2 * time.Minute),
	}))

	records, err := st.SessionUsage(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "how do I merge dataframes?", records[0].Question)
	require.Equal(t, "lt", records[1].Language)

	total, err := st.TotalTokens(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, core.TokenUsage{PromptTokens: 700, CompletionTokens: 400, TotalTokens: 1100}, total)

	total, err = st.TotalTokens(ctx, "unknown")
	require.NoError(t, err)
	require.Zero(t, total.TotalTokens)
}

func TestIndexMeta(t *testing.T) {
	ctx := context.Background()
	st := openMemoryStore(t)

	value, err := st.IndexMeta(ctx, "embedding_model")
	require.NoError(t, err)
	require.Empty(t, value)

	require.NoError(t, st.SetIndexMeta(ctx, "embedding_model", "text-embedding-004"))
	require.NoError(t, st.SetIndexMeta(ctx, "embedding_model", "text-embedding-004"))

	value, err = st.IndexMeta(ctx, "embedding_model")
	require.NoError(t, err)
	require.Equal(t, "text-embedding-004", value)
}

func TestBuildDSNVariants(t *testing.T) {
	dsn, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
	require.NoError(t, err)
	require.Equal(t, ":memory:", dsn)

	dsn, err = buildLibsqlDSN(config.StoreConfig{URL: "libsql://db.example.turso.io", AuthToken: "tok"})
	require.NoError(t, err)
	require.Contains(t, dsn, "authToken=tok")

	_, err = buildLibsqlDSN(config.StoreConfig{})
	require.Error(t, err)
}
