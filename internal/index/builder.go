package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
)

// Builder splits the corpus, embeds every chunk, and persists the result.
type Builder struct {
	Store    *store.Store
	Embedder Embedder
	Splitter *Splitter
	Logger   *zap.Logger
}

// BuildStats summarizes one index build.
type BuildStats struct {
	Libraries int
	Chunks    int
}

// Build rebuilds the persisted index from the embedded corpus. Chunks are
// replaced per library, so a failed build leaves untouched libraries intact.
func (b *Builder) Build(ctx context.Context, model string) (*BuildStats, error) {
	if b == nil || b.Store == nil || b.Embedder == nil || b.Splitter == nil {
		return nil, errors.New("builder is not initialized")
	}

	docs, err := LoadCorpus()
	if err != nil {
		return nil, err
	}

	byLibrary := make(map[string][]CorpusDoc)
	for _, doc := range docs {
		byLibrary[doc.Library] = append(byLibrary[doc.Library], doc)
	}
	libraries := make([]string, 0, len(byLibrary))
	for lib := range byLibrary {
		libraries = append(libraries, lib)
	}
	sort.Strings(libraries)

	stats := &BuildStats{}
	for _, lib := range libraries {
		var stored []store.StoredChunk
		for _, doc := range byLibrary[lib] {
			for i, text := range b.Splitter.Split(doc.Content) {
				vec, err := b.Embedder.Embed(ctx, text)
				if err != nil {
					return nil, fmt.Errorf("embed chunk %d of %s: %w", i, doc.Source, err)
				}
				stored = append(stored, store.StoredChunk{
					Chunk: core.Chunk{
						Library:  doc.Library,
						Source:   doc.Source,
						Category: doc.Category,
						Content:  text,
						Index:    i,
					},
					Embedding: vec,
				})
			}
		}

		if err := b.Store.ReplaceChunks(ctx, lib, stored); err != nil {
			return nil, err
		}
		stats.Libraries++
		stats.Chunks += len(stored)
		if b.Logger != nil {
			b.Logger.Info("indexed library",
				zap.String("library", lib),
				zap.Int("chunks", len(stored)))
		}
	}

	if err := b.Store.SetIndexMeta(ctx, "embedding_model", model); err != nil {
		return nil, err
	}
	return stats, nil
}
