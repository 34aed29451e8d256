// Package genai coordinates prompt loading, driver selection, and completion
// execution for every LLM-backed step of the pipeline.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver/gemini"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver/openai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/prompt"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultTimeout        = 60 * time.Second
	maxTimeout            = 5 * time.Minute
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Service runs prompts against the configured provider.
type Service struct {
	cfg      Config
	driver   driver.Driver
	registry prompt.Registry
	embedder *gemini.Client
}

// CompleteRequest selects a prompt and its inputs for one completion.
type CompleteRequest struct {
	Role        string
	PromptSlug  string
	Variables   map[string]string
	History     []driver.Message
	Temperature *float64
	MaxTokens   *int
}

// CompleteResult carries the model output and reported token usage.
type CompleteResult struct {
	Text  string
	Usage driver.Usage
}

// NewService resolves the driver and prompt registry from configuration.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("genai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultEmbeddingModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Timeout > maxTimeout {
		cfg.Timeout = maxTimeout
	}

	var drv driver.Driver
	switch strings.TrimSpace(cfg.Provider) {
	case "", "gemini":
		client := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		drv = client
	case "openai":
		client := openai.NewClient(cfg.BaseURL, cfg.APIKey)
		client.Timeout = cfg.Timeout
		drv = client
	default:
		return nil, fmt.Errorf("unsupported genai provider: %q", cfg.Provider)
	}

	var registry prompt.Registry
	var err error
	if dir := strings.TrimSpace(cfg.PromptsDir); dir != "" {
		prompts, loadErr := prompt.LoadFromDir(dir)
		if loadErr != nil {
			return nil, loadErr
		}
		registry, err = prompt.NewRegistry(prompts)
	} else {
		registry, err = prompt.DefaultRegistry()
	}
	if err != nil {
		return nil, err
	}

	// Embeddings always go through the Gemini API, also when completions are
	// routed elsewhere; the index is built with Gemini vectors.
	embedder := gemini.NewClient(cfg.BaseURL, cfg.APIKey)
	embedder.Timeout = cfg.Timeout

	return &Service{cfg: cfg, driver: drv, registry: registry, embedder: embedder}, nil
}

// Driver exposes the resolved driver name for diagnostics.
func (s *Service) Driver() string {
	if s == nil || s.driver == nil {
		return ""
	}
	return s.driver.Name()
}

// Prompts exposes the prompt registry.
func (s *Service) Prompts() prompt.Registry {
	if s == nil {
		return nil
	}
	return s.registry
}

// Complete renders the prompt for the request and executes it.
func (s *Service) Complete(ctx context.Context, req CompleteRequest) (*CompleteResult, error) {
	if s == nil || s.driver == nil {
		return nil, errors.New("genai service not configured")
	}

	promptDef, err := s.registry.Get(req.PromptSlug)
	if err != nil {
		return nil, err
	}

	system, user, err := prompt.Render(promptDef, req.Variables)
	if err != nil {
		return nil, err
	}

	messages := make([]driver.Message, 0, len(req.History)+2)
	if system != "" {
		messages = append(messages, driver.Message{Role: driver.RoleSystem, Content: system})
	}
	messages = append(messages, req.History...)
	if user != "" {
		messages = append(messages, driver.Message{Role: driver.RoleUser, Content: user})
	}

	driverReq := &driver.Request{
		Model:       s.cfg.ModelFor(req.Role),
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		PromptSlug:  promptDef.Config.Slug,
	}
	if driverReq.Temperature == nil && s.cfg.Temperature > 0 {
		temp := s.cfg.Temperature
		driverReq.Temperature = &temp
	}
	if driverReq.MaxTokens == nil && s.cfg.MaxOutputTokens > 0 {
		limit := s.cfg.MaxOutputTokens
		driverReq.MaxTokens = &limit
	}
	if promptDef.Config.ResponseFormat == "json_object" {
		driverReq.ResponseFormat = &driver.ResponseFormat{Type: "json_object"}
	}

	resp, err := s.driver.Complete(ctx, driverReq)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, errors.New("empty response content")
	}

	result := &CompleteResult{Text: text}
	if resp.Usage != nil {
		result.Usage = *resp.Usage
	}
	return result, nil
}

// Embed returns the embedding vector for one piece of text.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	if s == nil || s.embedder == nil {
		return nil, errors.New("genai service not configured")
	}
	return s.embedder.Embed(ctx, s.cfg.EmbeddingModel, text)
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\]|\\{.*?\\})\\s*```")

// ParseStringArray extracts a JSON array of strings from model output,
// tolerating a markdown code fence around it.
func ParseStringArray(raw string) ([]string, error) {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		if match := fencedJSONRe.FindStringSubmatch(content); match != nil {
			content = match[1]
		}
	}

	var items []string
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, fmt.Errorf("parse string array: %w", err)
	}
	return items, nil
}

// StripJSONFence removes a markdown code fence from model output that should
// be a bare JSON object.
func StripJSONFence(raw string) string {
	content := strings.TrimSpace(raw)
	if strings.HasPrefix(content, "```") {
		if match := fencedJSONRe.FindStringSubmatch(content); match != nil {
			return match[1]
		}
	}
	return content
}
