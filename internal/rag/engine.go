// Package rag retrieves documentation context for a question using LLM-driven
// query expansion over a vector index.
package rag

import (
	"context"
	"crypto/sha256"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/prompt"
)

// Retrieval strategies.
const (
	StrategyMultiQuery    = "multi-query"
	StrategyDecomposition = "decomposition"
)

// Questions longer than this switch from multi-query to decomposition.
const decompositionWordThreshold = 15

const defaultTopK = 8

// Completer is the slice of the genai service the engine needs.
type Completer interface {
	Complete(ctx context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error)
}

// Searcher runs a similarity search against the vector index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]core.RetrievedDoc, error)
}

// Retrieval is the outcome of a hybrid retrieve.
type Retrieval struct {
	Docs     []core.RetrievedDoc
	Strategy string
	Queries  []string
}

// Engine coordinates query expansion and vector search. Both steps are
// memoized: expansions in the query-expansion region, per-query searches in
// the vector-search region.
type Engine struct {
	LLM    Completer
	Index  Searcher
	Cache  *cache.Cache
	Logger *zap.Logger
	TopK   int

	// OnUsage receives token usage of real LLM calls; cache hits report nothing.
	OnUsage func(usage driver.Usage)
}

// ExpandQuery generates search-query variations of the question. On expansion
// failure the original question is the only query, matching the degraded mode
// of the rest of the pipeline.
func (e *Engine) ExpandQuery(ctx context.Context, question string) []string {
	return e.expand(ctx, question, StrategyMultiQuery, prompt.SlugMultiQuery)
}

// DecomposeQuery breaks a complex question into sub-questions.
func (e *Engine) DecomposeQuery(ctx context.Context, question string) []string {
	return e.expand(ctx, question, StrategyDecomposition, prompt.SlugDecompose)
}

func (e *Engine) expand(ctx context.Context, question, strategy, slug string) []string {
	key := cache.ExpansionKey(question, strategy)

	queries, err := cache.GetOrCompute(ctx, e.Cache, cache.RegionQueryExpansion, key, func(ctx context.Context) ([]string, error) {
		result, err := e.LLM.Complete(ctx, genai.CompleteRequest{
			Role:       genai.RoleExpand,
			PromptSlug: slug,
			Variables:  map[string]string{"question": question},
		})
		if err != nil {
			return nil, err
		}
		e.recordUsage(result.Usage)

		parsed, err := genai.ParseStringArray(result.Text)
		if err != nil {
			return nil, err
		}
		return parsed, nil
	})
	if err != nil || len(queries) == 0 {
		e.warn("query expansion failed, using original question",
			zap.String("strategy", strategy), zap.Error(err))
		return []string{question}
	}
	return queries
}

// Retrieve runs the hybrid strategy: decomposition for long questions,
// multi-query otherwise. Results are deduplicated across queries and capped
// at twice the configured top-k.
func (e *Engine) Retrieve(ctx context.Context, question, lang string) (*Retrieval, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is required")
	}
	if e.Index == nil {
		return nil, errors.New("vector index not configured")
	}

	topK := e.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	strategy := StrategyMultiQuery
	var queries []string
	if len(strings.Fields(question)) > decompositionWordThreshold {
		strategy = StrategyDecomposition
		queries = e.DecomposeQuery(ctx, question)
	} else {
		queries = e.ExpandQuery(ctx, question)
		if !contains(queries, question) {
			queries = append([]string{question}, queries...)
		}
	}

	docs := make([]core.RetrievedDoc, 0, topK*2)
	seen := make(map[[32]byte]struct{})

	for _, query := range queries {
		results, err := e.search(ctx, query, lang, topK)
		if err != nil {
			return nil, err
		}
		for _, doc := range results {
			fingerprint := sha256.Sum256([]byte(doc.Chunk.Content))
			if _, ok := seen[fingerprint]; ok {
				continue
			}
			seen[fingerprint] = struct{}{}
			docs = append(docs, doc)
		}
	}

	if len(docs) > topK*2 {
		docs = docs[:topK*2]
	}

	return &Retrieval{Docs: docs, Strategy: strategy, Queries: queries}, nil
}

// search memoizes one similarity search. The key carries the query text, the
// retrieval language, and the result count: changing any of them can change
// the result set.
func (e *Engine) search(ctx context.Context, query, lang string, k int) ([]core.RetrievedDoc, error) {
	key := cache.SearchKey(query, lang, k)
	return cache.GetOrCompute(ctx, e.Cache, cache.RegionVectorSearch, key, func(ctx context.Context) ([]core.RetrievedDoc, error) {
		return e.Index.Search(ctx, query, k)
	})
}

func (e *Engine) recordUsage(usage driver.Usage) {
	if e.OnUsage != nil {
		e.OnUsage(usage)
	}
}

func (e *Engine) warn(msg string, fields ...zap.Field) {
	if e.Logger != nil {
		e.Logger.Warn(msg, fields...)
	}
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
