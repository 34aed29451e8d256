// Package assistant orchestrates the question-answering pipeline: rate
// limiting, language handling, retrieval, completion, and tool lookups.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/ratelimit"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/prompt"
	"github.com/RimvydasPet/tech-doc-assistant/internal/lang"
	"github.com/RimvydasPet/tech-doc-assistant/internal/rag"
	"github.com/RimvydasPet/tech-doc-assistant/internal/store"
	"github.com/RimvydasPet/tech-doc-assistant/internal/tools"
)

// Completer is the LLM surface the pipeline needs.
type Completer interface {
	Complete(ctx context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error)
}

// Searcher runs a similarity search against the vector index.
type Searcher = rag.Searcher

const historyWindow = 6

// Assistant wires the pipeline components together. Per-question language
// and retrieval handlers are built on the fly so token usage can be
// accumulated per request.
type Assistant struct {
	LLM     Completer
	Index   Searcher
	Cache   *cache.Cache
	Limiter *ratelimit.Limiter
	Store   *store.Store
	PyPI    *tools.PyPIClient
	Logger  *zap.Logger

	TopK         int
	ToolsEnabled bool

	// OnUsage, when set, receives the token usage of every real LLM call.
	OnUsage func(usage driver.Usage)

	// OnTool, when set, observes every tool invocation outcome.
	OnTool func(tool string, success bool)

	Clock func() time.Time
}

// AskRequest is one question from a session.
type AskRequest struct {
	SessionID string
	Message   string
	// Language forces the user language; empty means auto-detect.
	Language string
	History  []core.HistoryEntry
	// Visual asks for a structured chart/table payload alongside the answer.
	Visual bool
	// UseTools overrides the assistant-wide tool toggle for this request.
	UseTools *bool
}

// RateLimitError reports a rejected request and when to retry.
type RateLimitError struct {
	RetryAfter time.Duration
	Used       int
	Limit      int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded (%d/%d requests), retry in %s",
		e.Used, e.Limit, e.RetryAfter.Round(time.Second))
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	return errors.As(err, &rle)
}

// Ask answers one question. A rejected request consumes nothing and returns
// a *RateLimitError; any upstream failure propagates unchanged.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*core.Answer, error) {
	if a == nil || a.LLM == nil || a.Index == nil || a.Limiter == nil {
		return nil, errors.New("assistant is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, errors.New("message is required")
	}

	decision := a.Limiter.Allow(sessionID)
	if !decision.Allowed {
		return nil, &RateLimitError{
			RetryAfter: decision.RetryAfter,
			Used:       decision.Used,
			Limit:      a.Limiter.MaxRequests(),
		}
	}

	var usage driver.Usage
	collect := func(u driver.Usage) {
		usage.PromptTokens += u.PromptTokens
		usage.CompletionTokens += u.CompletionTokens
		usage.TotalTokens += u.TotalTokens
		if a.OnUsage != nil {
			a.OnUsage(u)
		}
	}

	langHandler := &lang.Handler{LLM: a.LLM, Cache: a.Cache, Logger: a.Logger, OnUsage: collect}
	engine := &rag.Engine{LLM: a.LLM, Index: a.Index, Cache: a.Cache, Logger: a.Logger, TopK: a.TopK, OnUsage: collect}

	query, err := langHandler.ProcessQuery(ctx, message, req.Language)
	if err != nil {
		return nil, err
	}

	retrieval, err := engine.Retrieve(ctx, query.EnglishQuery, "en")
	if err != nil {
		return nil, err
	}

	toolsEnabled := a.ToolsEnabled
	if req.UseTools != nil {
		toolsEnabled = *req.UseTools
	}
	toolResults := a.runTools(ctx, query.EnglishQuery, toolsEnabled)

	slug := prompt.SlugAnswer
	if req.Visual {
		slug = prompt.SlugAnswerVisual
	}
	variables := map[string]string{
		"question":     query.EnglishQuery,
		"context":      formatContext(retrieval.Docs),
		"tool_results": formatToolResults(toolResults),
	}

	result, err := a.LLM.Complete(ctx, genai.CompleteRequest{
		Role:       genai.RoleAnswer,
		PromptSlug: slug,
		Variables:  variables,
		History:    historyMessages(req.History),
	})
	if err != nil {
		return nil, err
	}
	collect(result.Usage)

	text := result.Text
	var visual *core.Visual
	if req.Visual {
		text, visual = a.parseVisual(result.Text)
	}

	if query.NeedsTranslation {
		text = langHandler.TranslateFromEnglish(ctx, text, query.Language)
	}

	answer := &core.Answer{
		Text:     text,
		Language: query.Language,
		Sources:  sourcesOf(retrieval.Docs),
		Strategy: retrieval.Strategy,
		Usage: core.TokenUsage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		},
		ToolResults: toolResults,
		Visual:      visual,
		AnsweredAt:  a.now(),
	}

	a.Limiter.RecordTokens(sessionID, int64(usage.TotalTokens))
	a.recordHistory(ctx, sessionID, query, answer)

	return answer, nil
}

// Usage reports the limiter state for a session.
func (a *Assistant) Usage(sessionID string) ratelimit.Snapshot {
	return a.Limiter.Snapshot(sessionID)
}

// ResetUsage clears a session's sliding window and token count.
func (a *Assistant) ResetUsage(sessionID string) {
	a.Limiter.Reset(sessionID)
}

// SessionHistory returns the persisted question history for a session.
func (a *Assistant) SessionHistory(ctx context.Context, sessionID string, limit int) ([]store.UsageRecord, error) {
	if a.Store == nil {
		return nil, nil
	}
	return a.Store.SessionUsage(ctx, sessionID, limit)
}

func (a *Assistant) recordHistory(ctx context.Context, sessionID string, query *lang.QueryInfo, answer *core.Answer) {
	if a.Store == nil {
		return
	}
	err := a.Store.RecordUsage(ctx, store.UsageRecord{
		SessionID: sessionID,
		Question:  query.Original,
		Language:  query.Language,
		Usage:     answer.Usage,
		AskedAt:   answer.AnsweredAt,
	})
	if err != nil && a.Logger != nil {
		a.Logger.Warn("record usage history", zap.Error(err))
	}
}

// runTools resolves documentation links and, for package-oriented questions,
// PyPI metadata. Tool failures degrade to an error entry instead of failing
// the answer.
func (a *Assistant) runTools(ctx context.Context, question string, enabled bool) []core.ToolResult {
	if !enabled {
		return nil
	}

	var results []core.ToolResult

	links := tools.DocLinks(question)
	if len(links) > 0 {
		var sb strings.Builder
		for _, link := range links {
			fmt.Fprintf(&sb, "%s: %s\n", link.Library, link.URL)
		}
		results = append(results, core.ToolResult{
			Tool:   "doc_links",
			Input:  question,
			Output: strings.TrimSpace(sb.String()),
		})
		a.observeTool("doc_links", true)
	}

	if a.PyPI != nil && wantsPackageInfo(question) {
		for _, link := range links {
			if !isPyPIPackage(link.Library) {
				continue
			}
			result := core.ToolResult{Tool: "pypi_info", Input: link.Library}
			info, err := a.PyPI.PackageInfo(ctx, link.Library)
			if err != nil {
				result.Err = err.Error()
				if a.Logger != nil {
					a.Logger.Warn("pypi lookup failed",
						zap.String("package", link.Library), zap.Error(err))
				}
			} else {
				result.Output = formatPackageInfo(info)
			}
			results = append(results, result)
			a.observeTool("pypi_info", result.Err == "")
			break
		}
	}

	return results
}

func (a *Assistant) observeTool(tool string, success bool) {
	if a.OnTool != nil {
		a.OnTool(tool, success)
	}
}

var packageKeywords = []string{"version", "install", "release", "pypi", "package", "upgrade"}

func wantsPackageInfo(question string) bool {
	lowered := strings.ToLower(question)
	for _, kw := range packageKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// isPyPIPackage filters out standard-library modules, which have no PyPI
// distribution of their own.
func isPyPIPackage(library string) bool {
	switch library {
	case "pandas", "numpy", "matplotlib", "seaborn", "requests", "flask",
		"pytest", "pip", "setuptools":
		return true
	}
	return false
}

func formatPackageInfo(info *core.PackageInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s: %s", info.Name, info.Version, info.Summary)
	if info.HomePage != "" {
		fmt.Fprintf(&sb, "\nhomepage: %s", info.HomePage)
	}
	if info.License != "" {
		fmt.Fprintf(&sb, "\nlicense: %s", info.License)
	}
	return sb.String()
}

func formatContext(docs []core.RetrievedDoc) string {
	if len(docs) == 0 {
		return "No relevant documentation found."
	}

	var sb strings.Builder
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source %d: %s / %s]\n%s", i+1, doc.Chunk.Library, doc.Chunk.Source, doc.Chunk.Content)
	}
	return sb.String()
}

func formatToolResults(results []core.ToolResult) string {
	if len(results) == 0 {
		return "none"
	}

	var sb strings.Builder
	for i, r := range results {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		if r.Err != "" {
			fmt.Fprintf(&sb, "[%s] failed: %s", r.Tool, r.Err)
			continue
		}
		fmt.Fprintf(&sb, "[%s]\n%s", r.Tool, r.Output)
	}
	return sb.String()
}

func sourcesOf(docs []core.RetrievedDoc) []string {
	seen := make(map[string]bool, len(docs))
	var sources []string
	for _, doc := range docs {
		source := doc.Chunk.Library + "/" + doc.Chunk.Source
		if seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// historyMessages converts the most recent conversation turns into driver
// messages, oldest first.
func historyMessages(history []core.HistoryEntry) []driver.Message {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	messages := make([]driver.Message, 0, len(history))
	for _, entry := range history {
		role := driver.RoleUser
		if entry.Role == "assistant" {
			role = driver.RoleAssistant
		}
		content := strings.TrimSpace(entry.Content)
		if content == "" {
			continue
		}
		messages = append(messages, driver.Message{Role: role, Content: content})
	}
	return messages
}

type visualPayload struct {
	Response string       `json:"response"`
	Visual   *core.Visual `json:"visual"`
}

// parseVisual decodes the structured answer of visual mode. An unparseable
// payload degrades to the raw text with no visual.
func (a *Assistant) parseVisual(raw string) (string, *core.Visual) {
	stripped := genai.StripJSONFence(raw)

	var payload visualPayload
	if err := json.Unmarshal([]byte(stripped), &payload); err != nil || strings.TrimSpace(payload.Response) == "" {
		if a.Logger != nil {
			a.Logger.Warn("visual answer was not valid JSON, returning raw text")
		}
		return raw, nil
	}

	visual := payload.Visual
	if visual != nil && (visual.Type == "" || len(visual.Data.Columns) == 0) {
		visual = nil
	}
	return payload.Response, visual
}

func (a *Assistant) now() time.Time {
	if a.Clock != nil {
		return a.Clock()
	}
	return time.Now()
}
