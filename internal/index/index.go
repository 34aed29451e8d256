package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

type entry struct {
	chunk core.Chunk
	vec   []float64
	norm  float64
}

// Index holds chunk embeddings in memory and answers cosine-similarity
// queries. Queries are embedded through the configured Embedder.
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	entries []entry
}

// New creates an empty index.
func New(embedder Embedder) *Index {
	return &Index{embedder: embedder}
}

// Load populates the index from the chunks persisted in the store,
// replacing any previous contents.
func (idx *Index) Load(ctx context.Context, st *store.Store) error {
	if idx == nil {
		return errors.New("index is not initialized")
	}

	stored, err := st.LoadChunks(ctx)
	if err != nil {
		return err
	}

	entries := make([]entry, 0, len(stored))
	for _, sc := range stored {
		n := vectorNorm(sc.Embedding)
		if n == 0 {
			continue
		}
		entries = append(entries, entry{chunk: sc.Chunk, vec: sc.Embedding, norm: n})
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.mu.Unlock()
	return nil
}

// Add inserts a chunk with a precomputed embedding.
func (idx *Index) Add(chunk core.Chunk, embedding []float64) {
	n := vectorNorm(embedding)
	if n == 0 {
		return
	}
	idx.mu.Lock()
	idx.entries = append(idx.entries, entry{chunk: chunk, vec: embedding, norm: n})
	idx.mu.Unlock()
}

// Len reports the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Search embeds the query and returns the k most similar chunks,
// best first.
func (idx *Index) Search(ctx context.Context, query string, k int) ([]core.RetrievedDoc, error) {
	if idx == nil || idx.embedder == nil {
		return nil, errors.New("index is not initialized")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is required")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	qvec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qnorm := vectorNorm(qvec)
	if qnorm == 0 {
		return nil, errors.New("query embedding is a zero vector")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]core.RetrievedDoc, 0, len(idx.entries))
	for _, e := range idx.entries {
		if len(e.vec) != len(qvec) {
			continue
		}
		var dot float64
		for i := range e.vec {
			dot += e.vec[i] * qvec[i]
		}
		results = append(results, core.RetrievedDoc{
			Chunk: e.chunk,
			Score: dot / (e.norm * qnorm),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func vectorNorm(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}
