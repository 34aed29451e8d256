package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	require.Error(t, err)

	_, err = NewSplitter(100, 100)
	require.Error(t, err)

	_, err = NewSplitter(100, -1)
	require.Error(t, err)

	s, err := NewSplitter(1000, 300)
	require.NoError(t, err)
	require.Equal(t, 1000, s.ChunkSize)
	require.Equal(t, 300, s.Overlap)
}

func TestSplitShortTextIsSingleChunk(t *testing.T) {
	s, err := NewSplitter(100, 20)
	require.NoError(t, err)

	require.Nil(t, s.Split("   "))
	require.Equal(t, []string{"hello world"}, s.Split("  hello world  "))
}

func TestSplitRespectsSizeAndOverlap(t *testing.T) {
	s, err := NewSplitter(100, 30)
	require.NoError(t, err)

	words := make([]string, 200)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 100)
		require.NotEmpty(t, c)
	}

	// Overlap duplicates text, so the chunks together exceed the input.
	var total int
	for _, c := range chunks {
		total += len(c)
	}
	require.Greater(t, total, len(text))
}

func TestSplitPrefersParagraphBreaks(t *testing.T) {
	s, err := NewSplitter(60, 10)
	require.NoError(t, err)

	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40)
	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	require.Equal(t, strings.Repeat("a", 40), chunks[0])
}

func TestSplitHandlesUnicode(t *testing.T) {
	s, err := NewSplitter(20, 5)
	require.NoError(t, err)

	text := strings.Repeat("ž", 50)
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		require.LessOrEqual(t, len([]rune(c)), 20)
	}
}
