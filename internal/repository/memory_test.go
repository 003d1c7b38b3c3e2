package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"carspa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySessionRepository(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)
	ctx := context.Background()

	t.Run("SaveAndGetSession", func(t *testing.T) {
		session := testSession("m1")
		require.NoError(t, repo.SaveSession(ctx, session))

		got, err := repo.GetSession(ctx, "m1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, models.StepDateTime, got.Step)
		assert.Equal(t, "Lowney sur Ville", got.State.Building)
	})

	t.Run("ReturnsCopy", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "m1")
		require.NoError(t, err)
		got.State.Building = "changed"

		again, err := repo.GetSession(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, "Lowney sur Ville", again.State.Building)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteSession", func(t *testing.T) {
		require.NoError(t, repo.DeleteSession(ctx, "m1"))
		got, err := repo.GetSession(ctx, "m1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Expired", func(t *testing.T) {
		short := NewMemorySessionRepository(time.Millisecond)
		require.NoError(t, short.SaveSession(ctx, testSession("m2")))
		time.Sleep(5 * time.Millisecond)

		got, err := short.GetSession(ctx, "m2")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		window := 20 * time.Millisecond
		for i := 0; i < 3; i++ {
			allowed, err := repo.CheckRateLimit(ctx, "contact:1", 3, window)
			require.NoError(t, err)
			assert.True(t, allowed)
		}
		allowed, err := repo.CheckRateLimit(ctx, "contact:1", 3, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		// other keys are independent
		allowed, err = repo.CheckRateLimit(ctx, "contact:2", 3, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		time.Sleep(2 * window)
		allowed, err = repo.CheckRateLimit(ctx, "contact:1", 3, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ConcurrentRateLimit", func(t *testing.T) {
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowedCount := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, _ := repo.CheckRateLimit(ctx, "burst", 10, time.Minute)
				if ok {
					mu.Lock()
					allowedCount++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 10, allowedCount)
	})
}

func countEntries(m *sync.Map) int {
	n := 0
	m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestMemorySessionRepositorySweepsExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("AbandonedSessions", func(t *testing.T) {
		repo := NewMemorySessionRepository(time.Millisecond)
		for i := 0; i < 1000; i++ {
			require.NoError(t, repo.SaveSession(ctx, testSession(fmt.Sprintf("abandoned-%d", i))))
		}
		time.Sleep(20 * time.Millisecond)

		require.NoError(t, repo.SaveSession(ctx, testSession("fresh")))
		assert.Equal(t, 1, countEntries(&repo.sessions))
	})

	t.Run("RateLimitWindows", func(t *testing.T) {
		repo := NewMemorySessionRepository(time.Millisecond)
		for i := 0; i < 100; i++ {
			_, err := repo.CheckRateLimit(ctx, fmt.Sprintf("submit:10.0.0.%d", i), 5, time.Millisecond)
			require.NoError(t, err)
		}
		time.Sleep(20 * time.Millisecond)

		allowed, err := repo.CheckRateLimit(ctx, "contact:10.0.0.1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, countEntries(&repo.rateLimits))
	})

	t.Run("NoTTLKeepsSessions", func(t *testing.T) {
		repo := NewMemorySessionRepository(0)
		require.NoError(t, repo.SaveSession(ctx, testSession("kept")))
		repo.sweep(time.Now().Add(time.Hour))

		got, err := repo.GetSession(ctx, "kept")
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}
