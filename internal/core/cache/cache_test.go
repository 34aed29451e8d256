package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetOrComputeMemoizes(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	calls := 0
	compute := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"doc1", "doc2"}, nil
	}

	key := SearchKey("pandas dataframe", "en", 5)

	first, err := GetOrCompute(context.Background(), c, RegionVectorSearch, key, compute)
	require.NoError(t, err)
	require.Equal(t, []string{"doc1", "doc2"}, first)

	second, err := GetOrCompute(context.Background(), c, RegionVectorSearch, key, compute)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)

	// A different top-k derives a different key and recomputes.
	otherKey := SearchKey("pandas dataframe", "en", 10)
	_, err = GetOrCompute(context.Background(), c, RegionVectorSearch, otherKey, compute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestComputeFailureNotStored(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	boom := errors.New("upstream unavailable")
	calls := 0

	_, err = GetOrCompute(context.Background(), c, RegionTranslation, "k", func(ctx context.Context) (string, error) {
		calls++
		return "", boom
	})
	require.ErrorIs(t, err, boom)

	value, err := GetOrCompute(context.Background(), c, RegionTranslation, "k", func(ctx context.Context) (string, error) {
		calls++
		return "hola", nil
	})
	require.NoError(t, err)
	require.Equal(t, "hola", value)
	require.Equal(t, 2, calls)
}

func TestInvalidateClearsOnlyOneRegion(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = GetOrCompute(ctx, c, RegionTranslation, "t", func(context.Context) (string, error) { return "hola", nil })
	require.NoError(t, err)
	_, err = GetOrCompute(ctx, c, RegionVectorSearch, "v", func(context.Context) (string, error) { return "docs", nil })
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(RegionTranslation))
	require.Equal(t, 0, c.Len(RegionTranslation))

	// The other region still serves its original value without recompute.
	value, err := GetOrCompute(ctx, c, RegionVectorSearch, "v", func(context.Context) (string, error) {
		t.Fatal("compute must not run after unrelated invalidation")
		return "", nil
	})
	require.NoError(t, err)
	require.Equal(t, "docs", value)
}

func TestStats(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "en", nil }

	_, _ = GetOrCompute(ctx, c, RegionLanguageDetect, "a", compute)
	_, _ = GetOrCompute(ctx, c, RegionLanguageDetect, "a", compute)
	_, _ = GetOrCompute(ctx, c, RegionLanguageDetect, "b", compute)

	stats, err := c.Stats(RegionLanguageDetect)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(2), stats.Misses)
	require.InDelta(t, 1.0/3.0, stats.Rate, 1e-9)

	require.NoError(t, c.Invalidate(RegionLanguageDetect))
	stats, err = c.Stats(RegionLanguageDetect)
	require.NoError(t, err)
	require.Zero(t, stats.Hits)
	require.Zero(t, stats.Misses)
}

func TestDisabledRegionPassesThrough(t *testing.T) {
	c, err := New(Config{Disabled: []Region{RegionTranslation}})
	require.NoError(t, err)

	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "hola", nil
	}

	_, _ = GetOrCompute(ctx, c, RegionTranslation, "k", compute)
	_, _ = GetOrCompute(ctx, c, RegionTranslation, "k", compute)
	require.Equal(t, 2, calls)
	require.Equal(t, 0, c.Len(RegionTranslation))
}

func TestUnknownRegionRejectedAtConstruction(t *testing.T) {
	_, err := New(Config{Disabled: []Region{"tranlsation"}})
	require.Error(t, err)

	_, err = ParseRegion("vector-search")
	require.NoError(t, err)
	_, err = ParseRegion("vector_search")
	require.Error(t, err)
}

func TestSingleFlight(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	var calls atomic.Int64
	started := make(chan struct{})
	release := make(chan struct{})

	compute := func(context.Context) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		return "value", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = GetOrCompute(context.Background(), c, RegionVectorSearch, "k", compute)
	}()

	<-started
	for i := 1; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = GetOrCompute(context.Background(), c, RegionVectorSearch, "k", func(context.Context) (string, error) {
				calls.Add(1)
				return "value", nil
			})
		}(i)
	}
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), calls.Load())
	for _, result := range results {
		require.Equal(t, "value", result)
	}
}

func TestWaiterContextCancellation(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_, _ = GetOrCompute(context.Background(), c, RegionQueryExpansion, "k", func(context.Context) (string, error) {
			close(started)
			<-release
			return "value", nil
		})
	}()

	<-started
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = GetOrCompute(ctx, c, RegionQueryExpansion, "k", func(context.Context) (string, error) {
		return "", nil
	})
	require.ErrorIs(t, err, context.Canceled)
	close(release)
}

func TestLookupHookObservesOutcomes(t *testing.T) {
	type lookup struct {
		region Region
		hit    bool
	}
	var observed []lookup
	c, err := New(Config{
		Disabled: []Region{RegionVectorSearch},
		OnLookup: func(region Region, hit bool) {
			observed = append(observed, lookup{region, hit})
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	compute := func(context.Context) (string, error) { return "value", nil }

	_, err = GetOrCompute(ctx, c, RegionTranslation, "k", compute)
	require.NoError(t, err)
	_, err = GetOrCompute(ctx, c, RegionTranslation, "k", compute)
	require.NoError(t, err)
	_, err = GetOrCompute(ctx, c, RegionVectorSearch, "k", compute)
	require.NoError(t, err)

	require.Equal(t, []lookup{
		{RegionTranslation, false},
		{RegionTranslation, true},
		{RegionVectorSearch, false},
	}, observed)
}
