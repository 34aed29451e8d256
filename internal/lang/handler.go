// Package lang handles language detection and translation through the LLM,
// memoized via the shared cache.
package lang

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
	"github.com/RimvydasPet/tech-doc-assistant/internal/core/cache"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/driver"
	"github.com/RimvydasPet/tech-doc-assistant/internal/genai/prompt"
)

// detectKeyLimit bounds how much text feeds the detection cache key; the
// language of a message is determined well before 100 characters.
const detectKeyLimit = 100

// Completer is the slice of the genai service the handler needs.
type Completer interface {
	Complete(ctx context.Context, req genai.CompleteRequest) (*genai.CompleteResult, error)
}

// Handler detects and translates between the supported languages and English.
type Handler struct {
	LLM    Completer
	Cache  *cache.Cache
	Logger *zap.Logger

	// OnUsage, when set, receives token usage of every real LLM call.
	// Cache hits report nothing.
	OnUsage func(usage driver.Usage)
}

// QueryInfo is the outcome of preprocessing a user message.
type QueryInfo struct {
	Original         string
	Language         string
	LanguageName     string
	EnglishQuery     string
	NeedsTranslation bool
}

// Detect returns the ISO 639-1 code of the text, falling back to English when
// the model reports an unsupported code or the call fails. The fallback is
// memoized like a real answer, matching the cost model: re-detecting the same
// text would fail the same way.
func (h *Handler) Detect(ctx context.Context, text string) (string, error) {
	key := cache.DetectKey(truncate(text, detectKeyLimit))

	return cache.GetOrCompute(ctx, h.Cache, cache.RegionLanguageDetect, key, func(ctx context.Context) (string, error) {
		codes := make([]string, 0, len(core.SupportedLanguages()))
		for _, lang := range core.SupportedLanguages() {
			codes = append(codes, lang.Code)
		}

		result, err := h.LLM.Complete(ctx, genai.CompleteRequest{
			Role:       genai.RoleDetect,
			PromptSlug: prompt.SlugDetectLanguage,
			Variables: map[string]string{
				"codes": strings.Join(codes, ", "),
				"text":  text,
			},
		})
		if err != nil {
			h.warn("language detection failed, defaulting to English", zap.Error(err))
			return core.DefaultLanguage, nil
		}
		h.recordUsage(result.Usage)

		code := strings.ToLower(strings.TrimSpace(result.Text))
		if !core.IsSupportedLanguage(code) {
			h.warn("model returned unsupported language code", zap.String("code", code))
			return core.DefaultLanguage, nil
		}
		return code, nil
	})
}

// TranslateToEnglish translates text into English. Text already in English
// passes through untouched. On upstream failure the original text is
// returned so the pipeline can still answer, and nothing is cached.
func (h *Handler) TranslateToEnglish(ctx context.Context, text, sourceLang string) string {
	return h.translate(ctx, text, sourceLang, core.DefaultLanguage)
}

// TranslateFromEnglish translates English text into the target language.
func (h *Handler) TranslateFromEnglish(ctx context.Context, text, targetLang string) string {
	return h.translate(ctx, text, core.DefaultLanguage, targetLang)
}

func (h *Handler) translate(ctx context.Context, text, sourceLang, targetLang string) string {
	if sourceLang == targetLang {
		return text
	}

	key := cache.TranslationKey(text, sourceLang, targetLang)
	translated, err := cache.GetOrCompute(ctx, h.Cache, cache.RegionTranslation, key, func(ctx context.Context) (string, error) {
		result, err := h.LLM.Complete(ctx, genai.CompleteRequest{
			Role:       genai.RoleTranslate,
			PromptSlug: prompt.SlugTranslate,
			Variables: map[string]string{
				"source_language": languageName(sourceLang),
				"target_language": languageName(targetLang),
				"text":            text,
			},
		})
		if err != nil {
			return "", err
		}
		h.recordUsage(result.Usage)
		return strings.TrimSpace(result.Text), nil
	})
	if err != nil {
		h.warn("translation failed, returning untranslated text",
			zap.String("source", sourceLang),
			zap.String("target", targetLang),
			zap.Error(err))
		return text
	}
	return translated
}

// ProcessQuery detects the message language (unless the caller pinned one)
// and produces the English form used for retrieval and generation.
func (h *Handler) ProcessQuery(ctx context.Context, message, userLang string) (*QueryInfo, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("message is required")
	}

	detected := userLang
	if detected == "" {
		var err error
		detected, err = h.Detect(ctx, message)
		if err != nil {
			return nil, err
		}
	} else if !core.IsSupportedLanguage(detected) {
		detected = core.DefaultLanguage
	}

	english := h.TranslateToEnglish(ctx, message, detected)

	return &QueryInfo{
		Original:         message,
		Language:         detected,
		LanguageName:     languageName(detected),
		EnglishQuery:     english,
		NeedsTranslation: detected != core.DefaultLanguage,
	}, nil
}

func (h *Handler) recordUsage(usage driver.Usage) {
	if h.OnUsage != nil {
		h.OnUsage(usage)
	}
}

func (h *Handler) warn(msg string, fields ...zap.Field) {
	if h.Logger != nil {
		h.Logger.Warn(msg, fields...)
	}
}

func languageName(code string) string {
	if lang, ok := core.LanguageByCode(code); ok {
		return lang.Name
	}
	return code
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
