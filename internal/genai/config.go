package genai

import "time"

// Config defines provider configuration for the assistant's LLM access.
type Config struct {
	// Provider is the driver identifier: "gemini" (default) or "openai".
	Provider string `mapstructure:"provider"`

	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`

	// Model is the default completion model; Models overrides it per role
	// (answer, translate, detect, expand).
	Model  string            `mapstructure:"model"`
	Models map[string]string `mapstructure:"models"`

	EmbeddingModel string `mapstructure:"embedding_model"`

	Timeout         time.Duration `mapstructure:"timeout"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`

	// PromptsDir overrides the built-in prompt set.
	PromptsDir string `mapstructure:"prompts_dir"`
}

// Completion roles used for per-role model routing.
const (
	RoleAnswer    = "answer"
	RoleTranslate = "translate"
	RoleDetect    = "detect"
	RoleExpand    = "expand"
)

// ModelFor resolves the model for a role.
func (c Config) ModelFor(role string) string {
	if model, ok := c.Models[role]; ok && model != "" {
		return model
	}
	return c.Model
}
