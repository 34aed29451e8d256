package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeysAreDeterministic(t *testing.T) {
	require.Equal(t, SearchKey("pandas dataframe", "en", 5), SearchKey("pandas dataframe", "en", 5))
	require.Equal(t, TranslationKey("hello", "en", "es"), TranslationKey("hello", "en", "es"))
	require.Equal(t, DetectKey("bonjour"), DetectKey("bonjour"))
	require.Equal(t, ExpansionKey("how do I merge frames", "multi-query"), ExpansionKey("how do I merge frames", "multi-query"))
}

func TestSearchKeyCoversEverySemanticInput(t *testing.T) {
	base := SearchKey("pandas dataframe", "en", 5)

	require.NotEqual(t, base, SearchKey("numpy array", "en", 5), "query text must change the key")
	require.NotEqual(t, base, SearchKey("pandas dataframe", "fr", 5), "retrieval language must change the key")
	require.NotEqual(t, base, SearchKey("pandas dataframe", "en", 10), "top-k must change the key")
}

func TestTranslationKeyCoversEverySemanticInput(t *testing.T) {
	base := TranslationKey("hello", "en", "es")

	require.NotEqual(t, base, TranslationKey("goodbye", "en", "es"))
	require.NotEqual(t, base, TranslationKey("hello", "fr", "es"))
	require.NotEqual(t, base, TranslationKey("hello", "en", "de"))
}

func TestExpansionKeySeparatesStrategies(t *testing.T) {
	require.NotEqual(t,
		ExpansionKey("complex question", "multi-query"),
		ExpansionKey("complex question", "decomposition"))
}

func TestFieldBoundariesDoNotCollide(t *testing.T) {
	// Length prefixing keeps ("ab","c") distinct from ("a","bc").
	require.NotEqual(t, fingerprint("ab", "c"), fingerprint("a", "bc"))
	require.NotEqual(t, TranslationKey("ab", "c", ""), TranslationKey("a", "bc", ""))
}
