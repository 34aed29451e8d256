package lang

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
)

type fakeCompleter struct {
	calls     int
	responses map[string]string
	err       error
}

func (f *fakeCompleter) Complete(ctx context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	text, ok := f.responses[req.PromptSlug]
	if !ok {
		text = "en"
	}
	return &genai.CompleteResult{Text: text, Usage: driver.Usage{TotalTokens: 7}}, nil
}

func newHandler(t *testing.T, llm Completer) *Handler {
	t.Helper()
	c, err := cache.New(cache.Config{})
	require.NoError(t, err)
	return &Handler{LLM: llm, Cache: c}
}

func TestDetectCachesResult(t *testing.T) {
	llm := &fakeCompleter{responses: map[string]string{"detect-language": "es"}}
	h := newHandler(t, llm)

	code, err := h.Detect(context.Background(), "¿cómo creo un dataframe?")
	require.NoError(t, err)
	require.Equal(t, "es", code)

	code, err = h.Detect(context.Background(), "¿cómo creo un dataframe?")
	require.NoError(t, err)
	require.Equal(t, "es", code)
	require.Equal(t, 1, llm.calls)
}

func TestDetectUnsupportedCodeDefaultsToEnglish(t *testing.T) {
	llm := &fakeCompleter{responses: map[string]string{"detect-language": "xx"}}
	h := newHandler(t, llm)

	code, err := h.Detect(context.Background(), "hello there")
	require.NoError(t, err)
	require.Equal(t, "en", code)
}

func TestDetectFailureDefaultsToEnglish(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("provider down")}
	h := newHandler(t, llm)

	code, err := h.Detect(context.Background(), "bonjour")
	require.NoError(t, err)
	require.Equal(t, "en", code)
}

func TestTranslateSkipsSameLanguage(t *testing.T) {
	llm := &fakeCompleter{}
	h := newHandler(t, llm)

	out := h.TranslateToEnglish(context.Background(), "already english", "en")
	require.Equal(t, "already english", out)
	require.Zero(t, llm.calls)
}

func TestTranslateCachesPerDirection(t *testing.T) {
	llm := &fakeCompleter{responses: map[string]string{"translate": "hola"}}
	h := newHandler(t, llm)

	out := h.TranslateFromEnglish(context.Background(), "hello", "es")
	require.Equal(t, "hola", out)
	out = h.TranslateFromEnglish(context.Background(), "hello", "es")
	require.Equal(t, "hola", out)
	require.Equal(t, 1, llm.calls)

	// A different target language is a different key.
	_ = h.TranslateFromEnglish(context.Background(), "hello", "de")
	require.Equal(t, 2, llm.calls)
}

func TestTranslateFailureReturnsOriginalAndStoresNothing(t *testing.T) {
	llm := &fakeCompleter{err: errors.New("provider down")}
	h := newHandler(t, llm)

	out := h.TranslateFromEnglish(context.Background(), "hello", "es")
	require.Equal(t, "hello", out)
	require.Equal(t, 0, h.Cache.Len(cache.RegionTranslation))

	// Recovery: the next call recomputes instead of serving a cached failure.
	llm.err = nil
	llm.responses = map[string]string{"translate": "hola"}
	out = h.TranslateFromEnglish(context.Background(), "hello", "es")
	require.Equal(t, "hola", out)
}

func TestProcessQuery(t *testing.T) {
	llm := &fakeCompleter{responses: map[string]string{
		"detect-language": "es",
		"translate":       "how do I create a dataframe?",
	}}
	h := newHandler(t, llm)

	var tokens int
	h.OnUsage = func(usage driver.Usage) { tokens += usage.TotalTokens }

	info, err := h.ProcessQuery(context.Background(), "¿cómo creo un dataframe?", "")
	require.NoError(t, err)
	require.Equal(t, "es", info.Language)
	require.Equal(t, "Spanish", info.LanguageName)
	require.Equal(t, "how do I create a dataframe?", info.EnglishQuery)
	require.True(t, info.NeedsTranslation)
	require.Equal(t, 14, tokens)

	_, err = h.ProcessQuery(context.Background(), "   ", "")
	require.Error(t, err)
}

func TestProcessQueryWithPinnedLanguage(t *testing.T) {
	llm := &fakeCompleter{responses: map[string]string{"translate": "hello"}}
	h := newHandler(t, llm)

	info, err := h.ProcessQuery(context.Background(), "labas", "lt")
	require.NoError(t, err)
	require.Equal(t, "lt", info.Language)

	// Unsupported pinned codes fall back to English and skip detection.
	info, err = h.ProcessQuery(context.Background(), "hello", "xx")
	require.NoError(t, err)
	require.Equal(t, "en", info.Language)
	require.False(t, info.NeedsTranslation)
}
