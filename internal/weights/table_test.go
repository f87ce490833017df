package weights

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leadwise/dispatch/types"
)

func TestTable_Replace(t *testing.T) {
	t.Run("installs the full entry set", func(t *testing.T) {
		table := NewTable()

		err := table.Replace(1, []types.WeightEntry{
			{OperatorID: 10, Weight: 20},
			{OperatorID: 11, Weight: 80},
		})

		require.NoError(t, err)
		require.Equal(t, map[int64]int{10: 20, 11: 80}, table.WeightsFor(1))
	})

	t.Run("replacement discards prior entries", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Replace(1, []types.WeightEntry{{OperatorID: 10, Weight: 5}}))

		require.NoError(t, table.Replace(1, []types.WeightEntry{{OperatorID: 11, Weight: 7}}))

		require.Equal(t, map[int64]int{11: 7}, table.WeightsFor(1))
	})

	t.Run("empty batch clears the channel", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Replace(1, []types.WeightEntry{{OperatorID: 10, Weight: 5}}))

		require.NoError(t, table.Replace(1, nil))

		require.Empty(t, table.WeightsFor(1))
	})

	t.Run("rejects non-positive weight without partial mutation", func(t *testing.T) {
		table := NewTable()
		require.NoError(t, table.Replace(1, []types.WeightEntry{{OperatorID: 10, Weight: 5}}))

		err := table.Replace(1, []types.WeightEntry{
			{OperatorID: 11, Weight: 3},
			{OperatorID: 12, Weight: 0},
		})

		require.ErrorIs(t, err, types.ErrInvalidWeight)
		require.Equal(t, map[int64]int{10: 5}, table.WeightsFor(1), "failed batch must not touch the table")
	})

	t.Run("rejects duplicate operator entries", func(t *testing.T) {
		table := NewTable()

		err := table.Replace(1, []types.WeightEntry{
			{OperatorID: 10, Weight: 3},
			{OperatorID: 10, Weight: 4},
		})

		require.ErrorIs(t, err, types.ErrDuplicateWeightEntry)
		require.Empty(t, table.WeightsFor(1))
	})
}

func TestTable_ChannelIsolation(t *testing.T) {
	table := NewTable()

	require.NoError(t, table.Replace(1, []types.WeightEntry{{OperatorID: 10, Weight: 100}}))
	require.NoError(t, table.Replace(2, []types.WeightEntry{{OperatorID: 11, Weight: 1}}))

	require.Equal(t, map[int64]int{10: 100}, table.WeightsFor(1))
	require.Equal(t, map[int64]int{11: 1}, table.WeightsFor(2))
	require.Nil(t, table.WeightsFor(3))

	table.Remove(1)
	require.Nil(t, table.WeightsFor(1))
	require.Equal(t, map[int64]int{11: 1}, table.WeightsFor(2))
}

func TestTable_AtomicReplacementUnderConcurrentReads(t *testing.T) {
	table := NewTable()

	oldSet := []types.WeightEntry{{OperatorID: 1, Weight: 1}, {OperatorID: 2, Weight: 1}}
	newSet := []types.WeightEntry{{OperatorID: 3, Weight: 9}, {OperatorID: 4, Weight: 9}}
	require.NoError(t, table.Replace(1, oldSet))

	done := make(chan struct{})
	var wg sync.WaitGroup

	// Readers must only ever observe fully-old or fully-new sets.
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				m := table.WeightsFor(1)
				_, old1 := m[1]
				_, old2 := m[2]
				_, new3 := m[3]
				_, new4 := m[4]

				switch {
				case old1 && old2 && !new3 && !new4:
				case new3 && new4 && !old1 && !old2:
				default:
					t.Errorf("observed mixed weight set: %v", m)
					return
				}
			}
		}()
	}

	for range 500 {
		require.NoError(t, table.Replace(1, newSet))
		require.NoError(t, table.Replace(1, oldSet))
	}
	require.NoError(t, table.Replace(1, newSet))

	close(done)
	wg.Wait()
}
