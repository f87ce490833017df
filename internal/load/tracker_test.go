package load

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/dispatch/internal/logger"
	"github.com/leadwise/dispatch/internal/metrics"
	"github.com/leadwise/dispatch/types"
)

func newTracker() *Tracker {
	return NewTracker(logger.NewNop(), metrics.NewNop())
}

func TestTracker_ReserveAndRelease(t *testing.T) {
	t.Run("reserves up to the ceiling and no further", func(t *testing.T) {
		tracker := newTracker()

		require.True(t, tracker.TryReserve(1, 2))
		require.True(t, tracker.TryReserve(1, 2))
		require.False(t, tracker.TryReserve(1, 2))
		require.Equal(t, 2, tracker.CurrentLoad(1))
	})

	t.Run("release frees a slot", func(t *testing.T) {
		tracker := newTracker()

		require.True(t, tracker.TryReserve(1, 1))
		require.False(t, tracker.TryReserve(1, 1))
		require.NoError(t, tracker.Release(1))
		require.Equal(t, 0, tracker.CurrentLoad(1))
		require.True(t, tracker.TryReserve(1, 1))
	})

	t.Run("unknown operator reports zero load", func(t *testing.T) {
		tracker := newTracker()

		require.Equal(t, 0, tracker.CurrentLoad(42))
	})

	t.Run("failed reserve has no side effect", func(t *testing.T) {
		tracker := newTracker()

		require.False(t, tracker.TryReserve(1, 0))
		require.Equal(t, 0, tracker.CurrentLoad(1))
	})
}

func TestTracker_ReleaseUnderflow(t *testing.T) {
	tracker := newTracker()

	err := tracker.Release(7)

	require.ErrorIs(t, err, types.ErrReleaseUnderflow)
	require.Equal(t, 0, tracker.CurrentLoad(7))

	// Underflow after real traffic behaves the same way.
	require.True(t, tracker.TryReserve(7, 1))
	require.NoError(t, tracker.Release(7))
	require.ErrorIs(t, tracker.Release(7), types.ErrReleaseUnderflow)
	require.Equal(t, 0, tracker.CurrentLoad(7))
}

func TestTracker_ConcurrentReserveNeverExceedsCeiling(t *testing.T) {
	const (
		ceiling    = 10
		goroutines = 100
	)

	tracker := newTracker()

	var (
		wg      sync.WaitGroup
		count   int
		countMu sync.Mutex
	)

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.TryReserve(1, ceiling) {
				countMu.Lock()
				count++
				countMu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, ceiling, count, "exactly ceiling reservations must succeed")
	require.Equal(t, ceiling, tracker.CurrentLoad(1))
}

func TestTracker_IndependentOperators(t *testing.T) {
	tracker := newTracker()

	require.True(t, tracker.TryReserve(1, 1))
	require.True(t, tracker.TryReserve(2, 1))
	require.False(t, tracker.TryReserve(1, 1))

	require.Equal(t, 1, tracker.CurrentLoad(1))
	require.Equal(t, 1, tracker.CurrentLoad(2))

	require.NoError(t, tracker.Release(2))
	require.Equal(t, 1, tracker.CurrentLoad(1))
	require.Equal(t, 0, tracker.CurrentLoad(2))
}

func TestTracker_ConcurrentReserveRelease(t *testing.T) {
	const iterations = 1000

	tracker := newTracker()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range iterations {
				if tracker.TryReserve(1, 4) {
					require.NoError(t, tracker.Release(1))
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 0, tracker.CurrentLoad(1))
}
