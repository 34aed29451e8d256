package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RimvydasPet/tech-doc-assistant/internal/core"
)

type fakeEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float64{1, 0, 0}, nil
}

func TestSearchRanksByCosineSimilarity(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"merge dataframes": {1, 0, 0},
	}}
	idx := New(emb)

	idx.Add(core.Chunk{ID: "a", Content: "merging"}, []float64{0.9, 0.1, 0})
	idx.Add(core.Chunk{ID: "b", Content: "plotting"}, []float64{0, 1, 0})
	idx.Add(core.Chunk{ID: "c", Content: "joins"}, []float64{1, 0, 0})
	require.Equal(t, 3, idx.Len())

	docs, err := idx.Search(context.Background(), "merge dataframes", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "c", docs[0].Chunk.ID)
	require.Equal(t, "a", docs[1].Chunk.ID)
	require.InDelta(t, 1.0, docs[0].Score, 1e-9)
}

func TestSearchValidation(t *testing.T) {
	idx := New(&fakeEmbedder{})

	_, err := idx.Search(context.Background(), "  ", 3)
	require.Error(t, err)

	_, err = idx.Search(context.Background(), "q", 0)
	require.Error(t, err)
}

func TestSearchSkipsMismatchedDimensions(t *testing.T) {
	idx := New(&fakeEmbedder{})
	idx.Add(core.Chunk{ID: "short"}, []float64{1, 0})
	idx.Add(core.Chunk{ID: "match"}, []float64{1, 0, 0})

	docs, err := idx.Search(context.Background(), "q", 5)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "match", docs[0].Chunk.ID)
}

func TestAddIgnoresZeroVectors(t *testing.T) {
	idx := New(&fakeEmbedder{})
	idx.Add(core.Chunk{ID: "zero"}, []float64{0, 0, 0})
	require.Equal(t, 0, idx.Len())
}

func TestLoadCorpusParsesFrontmatter(t *testing.T) {
	docs, err := LoadCorpus()
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	libraries := make(map[string]bool)
	for _, doc := range docs {
		require.NotEmpty(t, doc.Library)
		require.NotEmpty(t, doc.Source)
		require.NotEmpty(t, doc.Content)
		require.NotContains(t, doc.Content, "---\nlibrary:")
		libraries[doc.Library] = true
	}
	require.True(t, libraries["pandas"])
	require.True(t, libraries["numpy"])
}

func TestParseCorpusDocErrors(t *testing.T) {
	_, err := parseCorpusDoc("x.md", []byte("no frontmatter"))
	require.Error(t, err)

	_, err = parseCorpusDoc("x.md", []byte("---\nlibrary: pandas\nbody"))
	require.Error(t, err)

	_, err = parseCorpusDoc("x.md", []byte("---\ncategory: misc\n---\nbody"))
	require.Error(t, err)

	doc, err := parseCorpusDoc("x.md", []byte("---\nlibrary: pandas\ncategory: data\n---\nbody text"))
	require.NoError(t, err)
	require.Equal(t, "pandas", doc.Library)
	require.Equal(t, "data", doc.Category)
	require.Equal(t, "body text", doc.Content)
}
