package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
)

type fakeCompleter struct {
	calls int
	text  string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &genai.CompleteResult{Text: f.text}, nil
}

type fakeIndex struct {
	calls   int
	results map[string][]core.RetrievedDoc
	err     error
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]core.RetrievedDoc, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func doc(content string) core.RetrievedDoc {
	return core.RetrievedDoc{Chunk: core.Chunk{Content: content}, Score: 0.9}
}

func newEngine(t *testing.T, llm Completer, index Searcher) *Engine {
	t.Helper()
	c, err := cache.New(cache.Config{})
	require.NoError(t, err)
	return &Engine{LLM: llm, Index: index, Cache: c, TopK: 2}
}

func TestRetrieveMultiQueryDeduplicates(t *testing.T) {
	llm := &fakeCompleter{text: `["merge dataframes", "join tables"]`}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{
		"how to merge":     {doc("a"), doc("b")},
		"merge dataframes": {doc("b"), doc("c")},
		"join tables":      {doc("c"), doc("d")},
	}}
	engine := newEngine(t, llm, index)

	retrieval, err := engine.Retrieve(context.Background(), "how to merge", "en")
	require.NoError(t, err)
	require.Equal(t, StrategyMultiQuery, retrieval.Strategy)
	// Original question is prepended to the expansions.
	require.Equal(t, []string{"how to merge", "merge dataframes", "join tables"}, retrieval.Queries)
	require.Len(t, retrieval.Docs, 4)
}

func TestRetrieveCapsAtTwiceTopK(t *testing.T) {
	var docs []core.RetrievedDoc
	for i := 0; i < 10; i++ {
		docs = append(docs, doc(fmt.Sprintf("chunk-%d", i)))
	}
	llm := &fakeCompleter{text: `[]`}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{"q": docs}}
	engine := newEngine(t, llm, index)

	retrieval, err := engine.Retrieve(context.Background(), "q", "en")
	require.NoError(t, err)
	require.Len(t, retrieval.Docs, 4)
}

func TestRetrieveLongQuestionUsesDecomposition(t *testing.T) {
	question := strings.Repeat("word ", 16) + "end"
	llm := &fakeCompleter{text: `["sub one", "sub two"]`}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{
		"sub one": {doc("a")},
		"sub two": {doc("b")},
	}}
	engine := newEngine(t, llm, index)

	retrieval, err := engine.Retrieve(context.Background(), question, "en")
	require.NoError(t, err)
	require.Equal(t, StrategyDecomposition, retrieval.Strategy)
	require.Len(t, retrieval.Docs, 2)
}

func TestExpansionFailureFallsBackToQuestion(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("provider down")}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{"q": {doc("a")}}}
	engine := newEngine(t, llm, index)

	retrieval, err := engine.Retrieve(context.Background(), "q", "en")
	require.NoError(t, err)
	require.Equal(t, []string{"q"}, retrieval.Queries)
	require.Len(t, retrieval.Docs, 1)
}

func TestExpansionUnparseableFallsBack(t *testing.T) {
	llm := &fakeCompleter{text: "not a json array"}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{"q": {doc("a")}}}
	engine := newEngine(t, llm, index)

	queries := engine.ExpandQuery(context.Background(), "q")
	require.Equal(t, []string{"q"}, queries)
	_ = index
}

func TestSearchResultsAreCachedPerQuery(t *testing.T) {
	llm := &fakeCompleter{text: `[]`}
	index := &fakeIndex{results: map[string][]core.RetrievedDoc{"q": {doc("a")}}}
	engine := newEngine(t, llm, index)

	_, err := engine.Retrieve(context.Background(), "q", "en")
	require.NoError(t, err)
	_, err = engine.Retrieve(context.Background(), "q", "en")
	require.NoError(t, err)
	require.Equal(t, 1, index.calls)
}

func TestSearchFailurePropagates(t *testing.T) {
	boom := errors.New("index offline")
	llm := &fakeCompleter{text: `[]`}
	index := &fakeIndex{err: boom}
	engine := newEngine(t, llm, index)

	_, err := engine.Retrieve(context.Background(), "q", "en")
	require.ErrorIs(t, err, boom)
}
