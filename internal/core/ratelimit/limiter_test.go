package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

func TestNewValidation(t *testing.T) {
	_, err := New(20, 0)
	require.Error(t, err)

	_, err = New(20, -time.Second)
	require.Error(t, err)

	_, err = New(-1, time.Minute)
	require.Error(t, err)

	limiter, err := New(0, time.Minute)
	require.NoError(t, err)
	require.False(t, limiter.Allow("s").Allowed)
}

func TestSlidingWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(2, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	require.True(t, limiter.Allow("session").Allowed)

	now = base.Add(10 * time.Second)
	require.True(t, limiter.Allow("session").Allowed)

	now = base.Add(20 * time.Second)
	decision := limiter.Allow("session")
	require.False(t, decision.Allowed)
	require.Equal(t, 40*time.Second, decision.RetryAfter)

	now = base.Add(61 * time.Second)
	require.True(t, limiter.Allow("session").Allowed)
}

func TestRetryAfterWaitedOutExactly(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(1, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	require.True(t, limiter.Allow("session").Allowed)

	now = base.Add(15 * time.Second)
	decision := limiter.Allow("session")
	require.False(t, decision.Allowed)

	now = now.Add(decision.RetryAfter)
	require.True(t, limiter.Allow("session").Allowed)
}

func TestRejectionHasNoSideEffect(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(1, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	require.True(t, limiter.Allow("session").Allowed)
	first := limiter.Allow("session")
	second := limiter.Allow("session")
	require.False(t, first.Allowed)
	require.False(t, second.Allowed)
	require.Equal(t, first.RetryAfter, second.RetryAfter)
	require.Equal(t, 1, limiter.Snapshot("session").Used)
}

func TestUnseenSessionIsWindowEmpty(t *testing.T) {
	limiter, err := New(5, time.Minute)
	require.NoError(t, err)

	snap := limiter.Snapshot("never-seen")
	require.Equal(t, 0, snap.Used)
	require.Equal(t, 5, snap.Remaining)

	require.True(t, limiter.Allow("never-seen").Allowed)
}

func TestSnapshotIdempotent(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(3, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	limiter.Allow("session")
	limiter.Allow("session")

	first := limiter.Snapshot("session")
	second := limiter.Snapshot("session")
	require.Equal(t, first, second)
	require.Equal(t, 2, first.Used)
	require.Equal(t, 1, first.Remaining)
}

func TestTokenAccounting(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(20, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	limiter.RecordTokens("session", 500)
	limiter.Allow("session")
	limiter.RecordTokens("session", 300)

	require.Equal(t, int64(800), limiter.Snapshot("session").TokensUsed)

	// Token accounting never affects admission.
	now = base.Add(time.Second)
	require.True(t, limiter.Allow("session").Allowed)
}

func TestSessionsAreIndependent(t *testing.T) {
	limiter, err := New(1, time.Minute)
	require.NoError(t, err)

	require.True(t, limiter.Allow("a").Allowed)
	require.False(t, limiter.Allow("a").Allowed)
	require.True(t, limiter.Allow("b").Allowed)
}

func TestResetAndCleanup(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	limiter, err := New(1, time.Minute)
	require.NoError(t, err)
	limiter.Clock = fixedClock(&now)

	limiter.Allow("stale")
	now = base.Add(30 * time.Minute)
	limiter.Allow("fresh")

	require.Equal(t, []string{"fresh", "stale"}, limiter.Sessions())
	require.Equal(t, 1, limiter.CleanupIdle(10*time.Minute))
	require.Equal(t, []string{"fresh"}, limiter.Sessions())

	limiter.Reset("fresh")
	require.Empty(t, limiter.Sessions())
}

func TestConcurrentAllowNeverExceedsCeiling(t *testing.T) {
	limiter, err := New(10, time.Minute)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if limiter.Allow("session").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 10, allowed)
	require.Equal(t, 10, limiter.Snapshot("session").Used)
}
