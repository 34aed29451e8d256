package genai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStringArray(t *testing.T) {
	queries, err := ParseStringArray(`["a", "b", "c"]`)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, queries)

	queries, err = ParseStringArray("```json\n[\"pandas merge\", \"join dataframes\"]\n```")
	require.NoError(t, err)
	require.Equal(t, []string{"pandas merge", "join dataframes"}, queries)

	_, err = ParseStringArray("not json at all")
	require.Error(t, err)
}

func TestStripJSONFence(t *testing.T) {
	require.Equal(t, `{"response":"ok"}`, StripJSONFence("```json\n{\"response\":\"ok\"}\n```"))
	require.Equal(t, `{"response":"ok"}`, StripJSONFence(`{"response":"ok"}`))
}

func TestNewServiceValidation(t *testing.T) {
	_, err := NewService(Config{})
	require.Error(t, err)

	_, err = NewService(Config{APIKey: "k", Provider: "mystery"})
	require.Error(t, err)

	svc, err := NewService(Config{APIKey: "k"})
	require.NoError(t, err)
	require.Equal(t, "gemini", svc.Driver())

	svc, err = NewService(Config{APIKey: "k", Provider: "openai"})
	require.NoError(t, err)
	require.Equal(t, "openai", svc.Driver())
}

func TestModelFor(t *testing.T) {
	cfg := Config{Model: "base", Models: map[string]string{RoleTranslate: "fast"}}
	require.Equal(t, "fast", cfg.ModelFor(RoleTranslate))
	require.Equal(t, "base", cfg.ModelFor(RoleAnswer))
}
