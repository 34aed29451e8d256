package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/ratelimit"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/prompt"
)

type fakeLLM struct {
	mu        sync.Mutex
	calls     []string
	detected  string
	answer    string
	histories [][]driver.Message
}

func (f *fakeLLM) Complete(_ context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req.PromptSlug)
	if req.PromptSlug == prompt.SlugAnswer || req.PromptSlug == prompt.SlugAnswerVisual {
		f.histories = append(f.histories, req.History)
	}
	f.mu.Unlock()

	switch req.PromptSlug {
	case prompt.SlugDetectLanguage:
		return &genai.CompleteResult{Text: f.detected, Usage: driver.Usage{TotalTokens: 5}}, nil
	case prompt.SlugTranslate:
		return &genai.CompleteResult{
			Text:  "translated: " + req.Variables["text"],
			Usage: driver.Usage{TotalTokens: 10},
		}, nil
	case prompt.SlugMultiQuery, prompt.SlugDecompose:
		return &genai.CompleteResult{Text: `["variant one", "variant two"]`, Usage: driver.Usage{TotalTokens: 15}}, nil
	case prompt.SlugAnswer, prompt.SlugAnswerVisual:
		return &genai.CompleteResult{
			Text:  f.answer,
			Usage: driver.Usage{PromptTokens: 400, CompletionTokens: 100, TotalTokens: 500},
		}, nil
	}
	return &genai.CompleteResult{Text: ""}, nil
}

func (f *fakeLLM) slugCalls(slug string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == slug {
			n++
		}
	}
	return n
}

type fakeIndex struct {
	docs []core.RetrievedDoc
	err  error
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int) ([]core.RetrievedDoc, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.docs) > k {
		return f.docs[:k], nil
	}
	return f.docs, nil
}

func newTestAssistant(t *testing.T, llm *fakeLLM, idx *fakeIndex) *Assistant {
	t.Helper()

	limiter, err := ratelimit.New(20, time.Minute)
	require.NoError(t, err)
	c, err := cache.New(cache.Config{})
	require.NoError(t, err)

	return &Assistant{
		LLM:     llm,
		Index:   idx,
		Cache:   c,
		Limiter: limiter,
		TopK:    8,
	}
}

func retrievedDoc(id, library, source, content string) core.RetrievedDoc {
	return core.RetrievedDoc{
		Chunk: core.Chunk{ID: id, Library: library, Source: source, Content: content},
		Score: 0.9,
	}
}

func TestAskEnglishQuestion(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "Use pd.merge."}
	idx := &fakeIndex{docs: []core.RetrievedDoc{
		retrievedDoc("1", "pandas", "pandas.md", "merge joins frames"),
		retrievedDoc("2", "pandas", "pandas.md", "concat stacks frames"),
	}}
	a := newTestAssistant(t, llm, idx)

	answer, err := a.Ask(context.Background(), AskRequest{
		SessionID: "sess-1",
		Message:   "How do I merge two DataFrames?",
	})
	require.NoError(t, err)
	require.Equal(t, "Use pd.merge.", answer.Text)
	require.Equal(t, "en", answer.Language)
	require.Equal(t, []string{"pandas/pandas.md"}, answer.Sources)
	require.NotZero(t, answer.Usage.TotalTokens)
	require.Nil(t, answer.Visual)

	// English input never calls the translator.
	require.Zero(t, llm.slugCalls(prompt.SlugTranslate))

	snap := a.Usage("sess-1")
	require.Equal(t, 1, snap.Used)
	require.Equal(t, int64(answer.Usage.TotalTokens), snap.TokensUsed)
}

func TestAskTranslatesForeignQuestionBothWays(t *testing.T) {
	llm := &fakeLLM{detected: "lt", answer: "Use pd.merge."}
	idx := &fakeIndex{docs: []core.RetrievedDoc{retrievedDoc("1", "pandas", "pandas.md", "merge")}}
	a := newTestAssistant(t, llm, idx)

	answer, err := a.Ask(context.Background(), AskRequest{
		SessionID: "sess-1",
		Message:   "Kaip sujungti dvi lenteles?",
	})
	require.NoError(t, err)
	require.Equal(t, "lt", answer.Language)
	require.Equal(t, "translated: Use pd.merge.", answer.Text)
	require.Equal(t, 2, llm.slugCalls(prompt.SlugTranslate))
}

func TestAskRejectsWhenRateLimited(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "ok"}
	idx := &fakeIndex{}
	a := newTestAssistant(t, llm, idx)

	limiter, err := ratelimit.New(1, time.Minute)
	require.NoError(t, err)
	a.Limiter = limiter

	_, err = a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "first"})
	require.NoError(t, err)

	_, err = a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "second"})
	require.Error(t, err)
	require.True(t, IsRateLimited(err))

	var rle *RateLimitError
	require.ErrorAs(t, err, &rle)
	require.Equal(t, 1, rle.Limit)
	require.Greater(t, rle.RetryAfter, time.Duration(0))

	// The rejected request must not have reached the model.
	require.Equal(t, 1, llm.slugCalls(prompt.SlugAnswer))
}

func TestAskPropagatesSearchFailure(t *testing.T) {
	llm := &fakeLLM{detected: "en"}
	idx := &fakeIndex{err: context.DeadlineExceeded}
	a := newTestAssistant(t, llm, idx)

	_, err := a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "anything"})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAskValidation(t *testing.T) {
	a := newTestAssistant(t, &fakeLLM{detected: "en"}, &fakeIndex{})

	_, err := a.Ask(context.Background(), AskRequest{SessionID: "", Message: "hi"})
	require.Error(t, err)

	_, err = a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "   "})
	require.Error(t, err)
}

func TestAskVisualMode(t *testing.T) {
	llm := &fakeLLM{
		detected: "en",
		answer: `{"response": "Here is the comparison.", "visual": {
			"type": "table", "title": "Methods",
			"data": {"columns": ["method", "use"], "rows": [["merge", "joins"]]}}}`,
	}
	idx := &fakeIndex{docs: []core.RetrievedDoc{retrievedDoc("1", "pandas", "pandas.md", "merge")}}
	a := newTestAssistant(t, llm, idx)

	answer, err := a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "compare merge and concat", Visual: true})
	require.NoError(t, err)
	require.Equal(t, "Here is the comparison.", answer.Text)
	require.NotNil(t, answer.Visual)
	require.Equal(t, "table", answer.Visual.Type)
	require.Equal(t, []string{"method", "use"}, answer.Visual.Data.Columns)
	require.Equal(t, 1, llm.slugCalls(prompt.SlugAnswerVisual))
}

func TestAskVisualModeDegradesOnBadJSON(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "plain text, not JSON"}
	idx := &fakeIndex{}
	a := newTestAssistant(t, llm, idx)

	answer, err := a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "chart please", Visual: true})
	require.NoError(t, err)
	require.Equal(t, "plain text, not JSON", answer.Text)
	require.Nil(t, answer.Visual)
}

func TestAskTrimsHistoryWindow(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "ok"}
	idx := &fakeIndex{}
	a := newTestAssistant(t, llm, idx)

	history := make([]core.HistoryEntry, 0, 10)
	for i := 0; i < 5; i++ {
		history = append(history,
			core.HistoryEntry{Role: "user", Content: "question"},
			core.HistoryEntry{Role: "assistant", Content: "answer"},
		)
	}

	_, err := a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "next", History: history})
	require.NoError(t, err)
	require.Len(t, llm.histories, 1)
	require.Len(t, llm.histories[0], 6)
	require.Equal(t, driver.RoleAssistant, llm.histories[0][5].Role)
}

func TestRepeatQuestionHitsCaches(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "ok"}
	idx := &fakeIndex{docs: []core.RetrievedDoc{retrievedDoc("1", "pandas", "pandas.md", "merge")}}
	a := newTestAssistant(t, llm, idx)

	_, err := a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "merge frames how"})
	require.NoError(t, err)
	_, err = a.Ask(context.Background(), AskRequest{SessionID: "s", Message: "merge frames how"})
	require.NoError(t, err)

	// Detection and expansion are memoized across identical questions.
	require.Equal(t, 1, llm.slugCalls(prompt.SlugDetectLanguage))
	require.Equal(t, 1, llm.slugCalls(prompt.SlugMultiQuery))
	// The answer itself is generated fresh each time.
	require.Equal(t, 2, llm.slugCalls(prompt.SlugAnswer))
}

func TestAskRunsDocLinksTool(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "Use pd.merge."}
	idx := &fakeIndex{docs: []core.RetrievedDoc{
		retrievedDoc("1", "pandas", "pandas.md", "merge joins frames"),
	}}
	a := newTestAssistant(t, llm, idx)
	a.ToolsEnabled = true

	var observed []string
	a.OnTool = func(tool string, success bool) {
		require.True(t, success)
		observed = append(observed, tool)
	}

	answer, err := a.Ask(context.Background(), AskRequest{
		SessionID: "sess-tools",
		Message:   "How do I merge two pandas DataFrames?",
	})
	require.NoError(t, err)
	require.Len(t, answer.ToolResults, 1)
	require.Equal(t, "doc_links", answer.ToolResults[0].Tool)
	require.Contains(t, answer.ToolResults[0].Output, "pandas")
	require.Equal(t, []string{"doc_links"}, observed)
}

func TestAskUseToolsOverride(t *testing.T) {
	llm := &fakeLLM{detected: "en", answer: "Use pd.merge."}
	idx := &fakeIndex{docs: []core.RetrievedDoc{
		retrievedDoc("1", "pandas", "pandas.md", "merge joins frames"),
	}}
	a := newTestAssistant(t, llm, idx)
	a.ToolsEnabled = true

	off := false
	answer, err := a.Ask(context.Background(), AskRequest{
		SessionID: "sess-tools-off",
		Message:   "How do I merge two pandas DataFrames?",
		UseTools:  &off,
	})
	require.NoError(t, err)
	require.Empty(t, answer.ToolResults)
}
